package etlerror

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

type ErrorCode string

// Error codes follow the pipeline failure taxonomy: source query and
// transform errors abort one entity type's extraction, sink publish errors
// skip one document, checkpoint write errors leave the prior high-water mark
// in place.
const (
	ErrSourceQuery     ErrorCode = "SOURCE_QUERY"
	ErrTransform       ErrorCode = "TRANSFORM"
	ErrSinkPublish     ErrorCode = "SINK_PUBLISH"
	ErrCheckpointWrite ErrorCode = "CHECKPOINT_WRITE"
	ErrInternal        ErrorCode = "INTERNAL"
)

type ETLError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e ETLError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code ErrorCode, message string, details interface{}) ETLError {
	logrus.Error(details)
	return ETLError{
		Code:    code,
		Message: message,
		Details: details,
	}
}
