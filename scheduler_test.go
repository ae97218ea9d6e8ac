package cinefeed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJobSkipsOverlappingTick(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	runs := 0
	var mu sync.Mutex
	j := &job{name: "producer", run: func(ctx context.Context) {
		mu.Lock()
		runs++
		mu.Unlock()
		close(started)
		<-release
	}}

	go j.tick(context.Background())
	<-started

	// second tick while the first is still running
	j.tick(context.Background())

	mu.Lock()
	assert.Equal(t, 1, runs, "an overlapping tick must be skipped, not queued")
	mu.Unlock()

	close(release)
}

func TestJobRunsAgainAfterCompletion(t *testing.T) {
	runs := 0
	j := &job{name: "loader", run: func(ctx context.Context) {
		runs++
	}}

	j.tick(context.Background())
	j.tick(context.Background())

	assert.Equal(t, 2, runs)
}

func TestJobContainsPanic(t *testing.T) {
	j := &job{name: "producer", run: func(ctx context.Context) {
		panic("source exploded")
	}}

	assert.NotPanics(t, func() {
		j.tick(context.Background())
	})

	// the guard must be released so the next tick can run
	ran := false
	j.run = func(ctx context.Context) { ran = true }
	j.tick(context.Background())
	assert.True(t, ran)
}

func TestSchedulerRejectsInvalidInterval(t *testing.T) {
	s := NewScheduler()

	err := s.AddJob(context.Background(), "producer", 0, func(ctx context.Context) {})

	assert.Error(t, err)
}

func TestSchedulerRunsJobOnInterval(t *testing.T) {
	s := NewScheduler()

	ticked := make(chan struct{}, 4)
	err := s.AddJob(context.Background(), "producer", 1, func(ctx context.Context) {
		ticked <- struct{}{}
	})
	assert.NoError(t, err)

	s.Start()
	defer s.Stop()

	select {
	case <-ticked:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled job never ran")
	}
}
