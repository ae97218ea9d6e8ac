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

	"github.com/spf13/cobra"
)

// reindexCommands returns the command that republishes the whole active
// catalog to the search index. Checkpoints are left untouched.
func reindexCommands(c *cinefeedInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "republish the full catalog to the search index",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			if err := c.cinefeed.EnsureSearchReady(ctx); err != nil {
				log.Fatalf("failed to ensure collections exist: %v", err)
			}

			if err := c.cinefeed.Reindex(ctx); err != nil {
				log.Fatal(err)
			}
		},
	}

	return cmd
}
