package model

import "time"

// Checkpoint is the per-entity-type high-water mark up to which data is known
// to be durably published. ReferenceTimestamp is monotonically non-decreasing:
// it only ever advances to the maximum modification time among successfully
// loaded documents of a batch.
type Checkpoint struct {
	EntityType         string    `json:"entity_type"`
	ReferenceTimestamp time.Time `json:"reference_timestamp"`
}
