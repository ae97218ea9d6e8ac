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

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cinefeed/cinefeed"
)

/*
startCommands returns the Cobra command that runs the pipeline continuously.
The producer and loader are scheduled on independent intervals; each job skips
a tick when the previous one has not finished.
*/
func startCommands(c *cinefeedInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "start the cinefeed scheduler",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			if err := c.cinefeed.EnsureSearchReady(ctx); err != nil {
				log.Fatalf("failed to ensure collections exist: %v", err)
			}

			scheduler := cinefeed.NewScheduler()

			err := scheduler.AddJob(ctx, "producer", c.cnf.Pipeline.ProducerIntervalSec, c.cinefeed.Producer().Run)
			if err != nil {
				log.Fatal(err)
			}
			err = scheduler.AddJob(ctx, "loader", c.cnf.Pipeline.LoaderIntervalSec, c.cinefeed.Loader().Run)
			if err != nil {
				log.Fatal(err)
			}

			scheduler.Start()

			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
			<-sigs

			log.Println("shutting down, waiting for running jobs")
			cancel()
			scheduler.Stop()
		},
	}

	return cmd
}
