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
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cinefeed/cinefeed"
	"github.com/cinefeed/cinefeed/config"
	"github.com/cinefeed/cinefeed/database"
	"github.com/cinefeed/cinefeed/internal/notification"
)

// CinefeedCLI represents the CLI application, encapsulating the root Cobra command.
type CinefeedCLI struct {
	cmd *cobra.Command
}

// cinefeedInstance holds the runtime pipeline instance and its configuration,
// shared by every subcommand.
type cinefeedInstance struct {
	cinefeed *cinefeed.Cinefeed
	cnf      *config.Configuration
}

// recoverPanic handles any panics during program execution and logs the error using Logrus.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads the configuration and initializes the pipeline instance before
// running any subcommand.
func preRun(app *cinefeedInstance, configFile *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig(*configFile)
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		newCinefeed, err := setupCinefeed(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.cinefeed = newCinefeed
		app.cnf = cnf

		return nil
	}
}

// setupCinefeed connects to the source database and builds the pipeline from
// the provided configuration.
func setupCinefeed(cfg *config.Configuration) (*cinefeed.Cinefeed, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	newCinefeed, err := cinefeed.NewCinefeed(db)
	if err != nil {
		return nil, fmt.Errorf("error creating cinefeed: %v", err)
	}
	return newCinefeed, nil
}

// NewCLI creates the command-line interface for the cinefeed pipeline.
func NewCLI() *CinefeedCLI {
	var configFile string
	c := &cinefeedInstance{}

	var rootCmd = &cobra.Command{
		Use:   "cinefeed",
		Short: "Cinema catalog to search index pipeline",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./cinefeed.json", "Configuration file for the pipeline")

	rootCmd.PersistentPreRunE = preRun(c, &configFile)

	rootCmd.AddCommand(startCommands(c))
	rootCmd.AddCommand(runCommands(c))
	rootCmd.AddCommand(reindexCommands(c))

	return &CinefeedCLI{cmd: rootCmd}
}

// executeCLI runs the root command, handling any errors that occur during execution.
func (w CinefeedCLI) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
