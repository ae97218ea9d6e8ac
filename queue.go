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
	"fmt"
	"sync"
	"time"
)

// Stage identifies a hand-off point between pipeline components.
type Stage string

// StageFormatted carries sink-ready documents from the producer to the
// loader.
const StageFormatted Stage = "formatted"

// Document is the unit of work that flows through stage queues. A nil
// Document is the end-of-batch marker: the producer enqueues it after the
// last document of a batch, and the loader drains until it sees one. The
// channel itself is never closed because it is reused across runs.
type Document interface {
	DocumentID() string
	ModifiedAt() time.Time
}

// StageRegistry lazily creates and hands out one bounded, in-order queue per
// (stage, entity type) pair. It is the sole communication channel between
// pipeline stages and lives for the whole process.
type StageRegistry struct {
	capacity int

	mu     sync.Mutex
	queues map[string]chan Document
}

// NewStageRegistry creates a registry whose queues hold up to capacity
// documents. Capacity must cover a full batch plus its end-of-batch marker so
// a producer holding an empty queue can enqueue without blocking.
func NewStageRegistry(capacity int) *StageRegistry {
	return &StageRegistry{
		capacity: capacity,
		queues:   make(map[string]chan Document),
	}
}

// Queue returns the queue for a (stage, entity type) pair, creating it on
// first use. Callers always receive the same channel for the same pair.
func (r *StageRegistry) Queue(stage Stage, entityType string) chan Document {
	key := fmt.Sprintf("%s:%s", stage, entityType)

	r.mu.Lock()
	defer r.mu.Unlock()

	queue, ok := r.queues[key]
	if !ok {
		queue = make(chan Document, r.capacity)
		r.queues[key] = queue
	}
	return queue
}

// Formatted returns the formatted-stage queue for an entity type.
func (r *StageRegistry) Formatted(entityType string) chan Document {
	return r.Queue(StageFormatted, entityType)
}
