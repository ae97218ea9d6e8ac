package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/cinefeed/cinefeed/internal/etlerror"
	"github.com/cinefeed/cinefeed/model"
	"github.com/stretchr/testify/assert"
)

func TestGetCheckpoint_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	ref := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"entity_type", "reference_timestamp"}).
		AddRow(model.EntityTypeMovies, ref)

	mock.ExpectQuery("SELECT entity_type, reference_timestamp FROM cinema.etl_checkpoints WHERE entity_type = ?").
		WithArgs(model.EntityTypeMovies).
		WillReturnRows(rows)

	checkpoint, err := ds.GetCheckpoint(context.Background(), model.EntityTypeMovies)
	assert.NoError(t, err)
	assert.NotNil(t, checkpoint)
	assert.Equal(t, model.EntityTypeMovies, checkpoint.EntityType)
	assert.True(t, checkpoint.ReferenceTimestamp.Equal(ref))
}

func TestGetCheckpoint_AbsentIsNotAnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectQuery("SELECT entity_type, reference_timestamp FROM cinema.etl_checkpoints WHERE entity_type = ?").
		WithArgs("genres").
		WillReturnRows(sqlmock.NewRows([]string{"entity_type", "reference_timestamp"}))

	checkpoint, err := ds.GetCheckpoint(context.Background(), "genres")
	assert.NoError(t, err)
	assert.Nil(t, checkpoint)
}

func TestUpsertCheckpoint_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	ref := time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO cinema.etl_checkpoints").
		WithArgs(model.EntityTypeMovies, ref).
		WillReturnResult(sqlmock.NewResult(1, 1))

	checkpoint, err := ds.UpsertCheckpoint(context.Background(), model.EntityTypeMovies, ref)
	assert.NoError(t, err)
	assert.Equal(t, model.EntityTypeMovies, checkpoint.EntityType)
	assert.True(t, checkpoint.ReferenceTimestamp.Equal(ref))
}

func TestUpsertCheckpoint_StorageErrorSurfaced(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectExec("INSERT INTO cinema.etl_checkpoints").
		WithArgs(model.EntityTypeMovies, sqlmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	_, err = ds.UpsertCheckpoint(context.Background(), model.EntityTypeMovies, time.Now())
	assert.Error(t, err)
	etlErr, ok := err.(etlerror.ETLError)
	assert.True(t, ok)
	assert.Equal(t, etlerror.ErrCheckpointWrite, etlErr.Code)
}
