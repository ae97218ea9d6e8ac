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

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/typesense/typesense-go/typesense"
	"github.com/typesense/typesense-go/typesense/api"
)

const (
	CollectionMovies = "movies"
)

// CollectionConfig holds configuration for a specific collection.
type CollectionConfig struct {
	Schema     *api.CollectionSchema
	IDField    string
	TimeFields []string
}

var collectionConfigs map[string]CollectionConfig

func init() {
	collectionConfigs = map[string]CollectionConfig{
		CollectionMovies: {
			Schema:     getMovieSchema(),
			IDField:    "movie_id",
			TimeFields: []string{"created_at", "updated_at"},
		},
	}
}

// TypesenseClient wraps the Typesense client and provides methods to interact with it.
type TypesenseClient struct {
	Client *typesense.Client
}

// NewTypesenseClient initializes and returns a new Typesense client instance.
func NewTypesenseClient(apiKey string, hosts []string) *TypesenseClient {
	client := typesense.NewClient(
		typesense.WithServer(hosts[0]),
		typesense.WithAPIKey(apiKey),
		typesense.WithConnectionTimeout(5*time.Second),
		typesense.WithCircuitBreakerMaxRequests(50),
		typesense.WithCircuitBreakerInterval(2*time.Minute),
		typesense.WithCircuitBreakerTimeout(1*time.Minute),
	)
	return &TypesenseClient{Client: client}
}

// EnsureCollectionsExist ensures that all the necessary collections exist in the Typesense schema.
// If a collection doesn't exist, it will create the collection based on the latest schema.
// Creation is retried with exponential backoff because the sink may still be
// starting when the pipeline process comes up.
func (t *TypesenseClient) EnsureCollectionsExist(ctx context.Context) error {
	for name, config := range collectionConfigs {
		operation := func() error {
			_, err := t.CreateCollection(ctx, config.Schema)
			return err
		}
		if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}
	}
	return nil
}

// CreateCollection creates a collection in Typesense based on the provided schema.
// If the collection already exists, it will return without error.
func (t *TypesenseClient) CreateCollection(ctx context.Context, schema *api.CollectionSchema) (*api.CollectionResponse, error) {
	resp, err := t.Client.Collections().Create(ctx, schema)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return nil, nil
		}
		return nil, err
	}
	return resp, nil
}

// Search performs a search query on a specific collection with the provided search parameters.
func (t *TypesenseClient) Search(ctx context.Context, collection string, searchParams *api.SearchCollectionParams) (*api.SearchResult, error) {
	return t.Client.Collection(collection).Documents().Search(ctx, searchParams)
}

// UpsertDocument publishes a document to a collection keyed by its stable
// entity id. Re-publishing the same id with the same content is a no-op for
// observers, which makes the operation safe to repeat across runs.
func (t *TypesenseClient) UpsertDocument(ctx context.Context, collection string, id string, document interface{}) error {
	config, ok := collectionConfigs[collection]
	if !ok {
		return fmt.Errorf("unknown collection: %s", collection)
	}

	data, err := toDocumentMap(document)
	if err != nil {
		return err
	}
	normalizeTimeFields(config, data)

	if id != "" {
		data["id"] = id
		data[config.IDField] = id
	}

	_, err = t.Client.Collection(collection).Documents().Upsert(ctx, data)
	if err != nil {
		return fmt.Errorf("failed to upsert document in Typesense: %w", err)
	}
	return nil
}

// toDocumentMap converts a typed document into the map form the Typesense
// client expects.
func toDocumentMap(document interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	data := make(map[string]interface{})
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to convert document to map: %w", err)
	}
	return data, nil
}

// normalizeTimeFields converts time fields to Unix timestamps. Marshalled
// time.Time values arrive as RFC 3339 strings, so both forms are handled.
func normalizeTimeFields(config CollectionConfig, data map[string]interface{}) {
	for _, field := range config.TimeFields {
		fieldValue, ok := data[field]
		if !ok {
			continue
		}
		switch v := fieldValue.(type) {
		case time.Time:
			data[field] = v.Unix()
		case string:
			if parsed, err := time.Parse(time.RFC3339Nano, v); err == nil {
				data[field] = parsed.Unix()
			}
		case int64, float64:
			// Time already in Unix format, no action needed
		default:
			data[field] = time.Now().Unix()
		}
	}
}

// getMovieSchema returns the schema for the "movies" collection.
func getMovieSchema() *api.CollectionSchema {
	facet := true
	optional := true
	sortBy := "updated_at"
	enableNested := true
	return &api.CollectionSchema{
		Name: "movies",
		Fields: []api.Field{
			{Name: "movie_id", Type: "string", Facet: &facet},
			{Name: "name_ru", Type: "string", Facet: &facet},
			{Name: "name_eng", Type: "string", Facet: &facet, Optional: &optional},
			{Name: "release_date", Type: "string", Facet: &facet},
			{Name: "rating", Type: "float", Facet: &facet},
			{Name: "age_rating", Type: "int32", Facet: &facet},
			{Name: "actors_name", Type: "string[]", Facet: &facet},
			{Name: "directors_name", Type: "string[]", Facet: &facet},
			{Name: "producers_name", Type: "string[]", Facet: &facet},
			{Name: "genres_title", Type: "string[]", Facet: &facet},
			{Name: "persons", Type: "object[]", Facet: &facet, Optional: &optional},
			{Name: "genres", Type: "object[]", Facet: &facet, Optional: &optional},
			{Name: "created_at", Type: "int64", Facet: &facet},
			{Name: "updated_at", Type: "int64", Facet: &facet},
		},
		DefaultSortingField: &sortBy,
		EnableNestedFields:  &enableNested,
	}
}
