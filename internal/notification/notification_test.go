package notification

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/cinefeed/cinefeed/config"
)

func TestSlackNotification(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	config.MockConfig(&config.Configuration{
		ProjectName: "cinefeed-test",
		Notification: config.Notification{
			Slack: config.SlackWebhook{WebhookUrl: "https://hooks.slack.com/services/TEST/HOOK"},
		},
	})

	httpmock.RegisterResponder("POST", "https://hooks.slack.com/services/TEST/HOOK",
		httpmock.NewStringResponder(http.StatusOK, `{"ok": true}`))

	SlackNotification(errors.New("loader failed for movies"))

	info := httpmock.GetCallCountInfo()
	assert.Equal(t, 1, info["POST https://hooks.slack.com/services/TEST/HOOK"])
}

func TestSlackNotification_NoConfigLoaded(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	// an unconfigured webhook must not panic or call out
	config.MockConfig(&config.Configuration{ProjectName: "cinefeed-test"})

	SlackNotification(errors.New("producer failed for movies"))

	assert.Zero(t, httpmock.GetTotalCallCount())
}
