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

// Package cinefeed moves catalog rows from Postgres into a Typesense search
// index. A producer extracts rows modified since a per-entity checkpoint,
// formats them into documents and hands them to a loader through bounded
// in-memory stage queues; the loader publishes the documents and advances
// the checkpoint. Both stages run on independent schedules.
package cinefeed

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cinefeed/cinefeed/config"
	"github.com/cinefeed/cinefeed/database"
	"github.com/cinefeed/cinefeed/internal/search"
	"github.com/cinefeed/cinefeed/model"
)

type Cinefeed struct {
	datasource database.IDataSource
	registry   *StageRegistry
	search     SearchIndex
	rules      []PipelineRule
	producer   *Producer
	loader     *Loader
	config     *config.Configuration
}

func NewCinefeed(db database.IDataSource) (*Cinefeed, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	searchClient := search.NewTypesenseClient(configuration.TypeSenseKey, []string{configuration.TypeSense.Dns})
	registry := NewStageRegistry(configuration.Pipeline.QueueCapacity)
	rules := DefaultRules()

	cinefeed := &Cinefeed{
		datasource: db,
		registry:   registry,
		search:     searchClient,
		rules:      rules,
		producer:   NewProducer(db, registry, rules, configuration.Pipeline.BatchSize),
		loader:     NewLoader(db, registry, searchClient, rules, time.Duration(configuration.Pipeline.DrainTimeoutSec)*time.Second),
		config:     configuration,
	}
	return cinefeed, nil
}

func (c *Cinefeed) Producer() *Producer {
	return c.producer
}

func (c *Cinefeed) Loader() *Loader {
	return c.loader
}

func (c *Cinefeed) Config() *config.Configuration {
	return c.config
}

// EnsureSearchReady creates the search collections if they are missing,
// retrying until the sink is reachable.
func (c *Cinefeed) EnsureSearchReady(ctx context.Context) error {
	return c.search.EnsureCollectionsExist(ctx)
}

// RunOnce performs a single produce followed by a single load for every
// registered entity type.
func (c *Cinefeed) RunOnce(ctx context.Context) {
	c.producer.Run(ctx)
	c.loader.Run(ctx)
}

// Reindex republishes the entire active catalog to the search sink,
// bypassing the stage queues and the checkpoints. The upsert is keyed by
// the stable document id, so running it against a live index is safe.
func (c *Cinefeed) Reindex(ctx context.Context) error {
	batchSize := c.config.Pipeline.BatchSize
	total := 0

	var since *time.Time
	for {
		rows, err := c.datasource.GetUpdatedMovies(ctx, since, batchSize)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			break
		}

		for _, row := range rows {
			document := model.NewMovieDocument(row)
			if err := c.search.UpsertDocument(ctx, search.CollectionMovies, document.DocumentID(), document); err != nil {
				return err
			}
			total++
		}

		last := rows[len(rows)-1].LastTouched
		if since != nil && !last.After(*since) {
			// Every row in the page shares the window boundary; nudge past
			// it so the pager cannot loop on ties.
			last = last.Add(time.Microsecond)
		}
		since = &last

		if len(rows) < batchSize {
			break
		}
	}

	logrus.Infof("[*] Reindex complete, count: %d", total)
	return nil
}
