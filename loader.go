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

	"github.com/sirupsen/logrus"

	"github.com/cinefeed/cinefeed/database"
)

// SearchIndex is the document sink boundary. It is satisfied by
// search.TypesenseClient.
type SearchIndex interface {
	EnsureCollectionsExist(ctx context.Context) error
	UpsertDocument(ctx context.Context, collection string, id string, document interface{}) error
}

// Loader drains one batch per registered entity type from the formatted-stage
// queues, publishes every document to the search sink with an idempotent
// upsert, and advances the checkpoint to the highest modification time among
// the documents that were actually published.
type Loader struct {
	datasource   database.IDataSource
	registry     *StageRegistry
	search       SearchIndex
	rules        []PipelineRule
	drainTimeout time.Duration
}

func NewLoader(ds database.IDataSource, registry *StageRegistry, search SearchIndex, rules []PipelineRule, drainTimeout time.Duration) *Loader {
	return &Loader{
		datasource:   ds,
		registry:     registry,
		search:       search,
		rules:        rules,
		drainTimeout: drainTimeout,
	}
}

// Run loads one batch per registered entity type. Like the producer, types
// are isolated from each other: a failure for one type is logged and the
// next type still runs.
func (l *Loader) Run(ctx context.Context) {
	for _, rule := range l.rules {
		l.load(ctx, rule)
	}
}

func (l *Loader) load(ctx context.Context, rule PipelineRule) {
	entityType := rule.EntityType()
	queue := l.registry.Formatted(entityType)

	// An empty queue means the producer committed nothing for this type;
	// blocking here would stall every following type until the next batch.
	if len(queue) == 0 {
		return
	}

	var maxModified time.Time
	published := 0

	timeout := time.NewTimer(l.drainTimeout)
	defer timeout.Stop()

drain:
	for {
		select {
		case document := <-queue:
			if document == nil {
				break drain
			}

			err := l.search.UpsertDocument(ctx, entityType, document.DocumentID(), document)
			if err != nil {
				// The document stays out of the running maximum, so the
				// checkpoint cannot advance past it and the next producer
				// run re-extracts it.
				logrus.Errorf("[!] Error Load data for '%s' (ID=%s): %v", entityType, document.DocumentID(), err)
				continue
			}

			published++
			if document.ModifiedAt().After(maxModified) {
				maxModified = document.ModifiedAt()
			}

		case <-timeout.C:
			logrus.Errorf("[!] Timed out draining '%s' queue, abandoning batch for this run", entityType)
			return

		case <-ctx.Done():
			logrus.Errorf("[!] Context cancelled while draining '%s' queue", entityType)
			return
		}
	}

	if published > 0 {
		if _, err := l.datasource.UpsertCheckpoint(ctx, entityType, maxModified); err != nil {
			// Publish work already done is not undone; the stale checkpoint
			// re-extracts the same window next run and the idempotent upsert
			// absorbs the replays.
			logrus.Errorf("[!] Error update/insert reference_timestamp for '%s': %v", entityType, err)
			return
		}
		logrus.Infof("[*] ETL reference_timestamp was update/insert for '%s': %s", entityType, maxModified)
	}

	logrus.Infof("[*] '%s' was load, count: %d", entityType, published)
}
