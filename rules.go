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

package cinefeed

import (
	"context"
	"time"

	"github.com/cinefeed/cinefeed/database"
	"github.com/cinefeed/cinefeed/model"
)

// PipelineRule binds an entity type to its extraction query and its
// row-to-document mapper. The entity type doubles as the queue key, the
// checkpoint key and the search collection name. A new entity type is added
// by registering a new rule, not by touching the producer or loader.
type PipelineRule interface {
	EntityType() string
	// Extract runs the incremental source query and maps every returned row
	// into its published document form, oldest first. A nil since means
	// extraction from the beginning.
	Extract(ctx context.Context, ds database.IDataSource, since *time.Time, limit int) ([]Document, error)
}

// MoviesRule is the extraction/transform pair for the movies pipeline:
// Datasource.GetUpdatedMovies feeding model.NewMovieDocument.
type MoviesRule struct{}

func (MoviesRule) EntityType() string {
	return model.EntityTypeMovies
}

func (MoviesRule) Extract(ctx context.Context, ds database.IDataSource, since *time.Time, limit int) ([]Document, error) {
	rows, err := ds.GetUpdatedMovies(ctx, since, limit)
	if err != nil {
		return nil, err
	}

	documents := make([]Document, 0, len(rows))
	for _, row := range rows {
		documents = append(documents, model.NewMovieDocument(row))
	}
	return documents, nil
}

// DefaultRules returns the registered pipelines.
func DefaultRules() []PipelineRule {
	return []PipelineRule{
		MoviesRule{},
	}
}
