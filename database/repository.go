/*
Copyright 2024 Cinefeed Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package database

import (
	"context"
	"time"

	"github.com/cinefeed/cinefeed/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	source     // Interface for catalog extraction operations
	checkpoint // Interface for checkpoint operations
}

// source defines methods for reading the catalog of record.
type source interface {
	GetUpdatedMovies(ctx context.Context, since *time.Time, limit int) ([]model.MovieRow, error) // Extracts movies modified since the given timestamp
}

// checkpoint defines methods for reading and advancing the per-entity-type
// reference timestamps.
type checkpoint interface {
	GetCheckpoint(ctx context.Context, entityType string) (*model.Checkpoint, error)                        // Retrieves a checkpoint, nil when none exists yet
	UpsertCheckpoint(ctx context.Context, entityType string, ts time.Time) (*model.Checkpoint, error)       // Inserts or updates a checkpoint
}
