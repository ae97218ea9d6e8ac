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

// Producer performs incremental extraction for every registered entity type
// and hands the resulting batches to the loader through the formatted-stage
// queues.
type Producer struct {
	datasource database.IDataSource
	registry   *StageRegistry
	rules      []PipelineRule
	batchSize  int
}

func NewProducer(ds database.IDataSource, registry *StageRegistry, rules []PipelineRule, batchSize int) *Producer {
	return &Producer{
		datasource: ds,
		registry:   registry,
		rules:      rules,
		batchSize:  batchSize,
	}
}

// Run produces one batch per registered entity type. A failure for one type
// never crosses into another: each type is extracted independently and errors
// are logged, not returned.
func (p *Producer) Run(ctx context.Context) {
	for _, rule := range p.rules {
		p.produce(ctx, rule)
	}
}

func (p *Producer) produce(ctx context.Context, rule PipelineRule) {
	entityType := rule.EntityType()
	queue := p.registry.Formatted(entityType)

	// Backpressure: at most one batch is in flight per type. If the
	// loader has not drained the previous batch, this run skips the type
	// rather than stacking up work.
	if len(queue) > 0 {
		logrus.Warnf("[*] '%s' queue has not drained, skipping produce for this run", entityType)
		return
	}

	var since *time.Time
	checkpoint, err := p.datasource.GetCheckpoint(ctx, entityType)
	if err != nil {
		logrus.Errorf("[!] Error reading checkpoint for '%s': %v", entityType, err)
		return
	}
	if checkpoint != nil {
		since = &checkpoint.ReferenceTimestamp
	}

	documents, err := rule.Extract(ctx, p.datasource, since, p.batchSize)
	if err != nil {
		logrus.Errorf("[!] Error Produce data for '%s': %v", entityType, err)
		return
	}

	if len(documents) == 0 {
		logrus.Infof("[*] Not select-data for '%s'...", entityType)
		return
	}

	// Once enqueueing begins the batch must be terminated, or the loader
	// would wait on an end-of-batch marker that never comes.
	defer func() {
		queue <- nil
	}()

	for _, document := range documents {
		queue <- document
	}

	logrus.Infof("[*] '%s' was produce, count: %d", entityType, len(documents))
}
