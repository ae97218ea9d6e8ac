package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/cinefeed/cinefeed/internal/etlerror"
	"github.com/cinefeed/cinefeed/model"
)

// GetCheckpoint retrieves the reference timestamp for an entity type.
// A missing row is not an error: it returns (nil, nil), which callers treat
// as "extract from the beginning".
func (d Datasource) GetCheckpoint(ctx context.Context, entityType string) (*model.Checkpoint, error) {
	checkpoint := model.Checkpoint{EntityType: entityType}

	row := d.Conn.QueryRowContext(ctx, `
		SELECT entity_type, reference_timestamp
		FROM cinema.etl_checkpoints
		WHERE entity_type = $1
	`, entityType)

	err := row.Scan(&checkpoint.EntityType, &checkpoint.ReferenceTimestamp)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, etlerror.New(etlerror.ErrInternal, "Failed to retrieve checkpoint", err)
	}

	return &checkpoint, nil
}

// UpsertCheckpoint persists the new reference timestamp for an entity type as
// a single conditional write: insert when absent, update otherwise. The
// caller computes the value; the store does not compare. On error the stored
// checkpoint is left untouched so the same window is re-extracted next run.
func (d Datasource) UpsertCheckpoint(ctx context.Context, entityType string, ts time.Time) (*model.Checkpoint, error) {
	_, err := d.Conn.ExecContext(ctx, `
		INSERT INTO cinema.etl_checkpoints (entity_type, reference_timestamp)
		VALUES ($1, $2)
		ON CONFLICT (entity_type) DO UPDATE SET reference_timestamp = EXCLUDED.reference_timestamp
	`, entityType, ts)
	if err != nil {
		return nil, etlerror.New(etlerror.ErrCheckpointWrite, "Failed to upsert checkpoint", err)
	}

	return &model.Checkpoint{EntityType: entityType, ReferenceTimestamp: ts}, nil
}
