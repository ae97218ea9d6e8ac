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
	"fmt"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/cinefeed/cinefeed/internal/notification"
)

// job is a named pipeline stage with a single-instance guard. A tick that
// arrives while the previous one is still running is skipped, never queued.
type job struct {
	name    string
	running atomic.Bool
	run     func(ctx context.Context)
}

func (j *job) tick(ctx context.Context) {
	if !j.running.CompareAndSwap(false, true) {
		logrus.Warnf("[*] '%s' job is still running, skipping this tick", j.name)
		return
	}
	defer j.running.Store(false)
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%s job panicked: %v", j.name, r)
			logrus.Error(err)
			notification.NotifyError(err)
		}
	}()

	j.run(ctx)
}

// Scheduler drives the producer and loader on independent fixed intervals.
type Scheduler struct {
	cron *cron.Cron
	jobs []*job
}

func NewScheduler() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

// AddJob registers fn to run every intervalSec seconds under a
// single-instance guard.
func (s *Scheduler) AddJob(ctx context.Context, name string, intervalSec int, fn func(ctx context.Context)) error {
	if intervalSec <= 0 {
		return fmt.Errorf("invalid interval %d for %s job", intervalSec, name)
	}

	j := &job{name: name, run: fn}
	s.jobs = append(s.jobs, j)

	_, err := s.cron.AddFunc(fmt.Sprintf("@every %ds", intervalSec), func() {
		j.tick(ctx)
	})
	if err != nil {
		return fmt.Errorf("scheduling %s job: %w", name, err)
	}

	logrus.Infof("[*] '%s' job scheduled every %d seconds", name, intervalSec)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts ticking and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
