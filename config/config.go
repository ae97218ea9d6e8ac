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

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_BATCH_SIZE    = 500
	DEFAULT_INTERVAL_SEC  = 60
	DEFAULT_DRAIN_TIMEOUT = 30
)

var ConfigStore atomic.Value

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"CINEFEED_DATA_SOURCE_DNS"`
}

type TypeSenseConfig struct {
	Dns string `json:"dns" envconfig:"CINEFEED_TYPESENSE_DNS"`
}

// PipelineConfig holds the knobs for the extract/load cycle. Queue capacity
// must be able to hold a full batch plus its end-of-batch marker, so a zero
// value is derived from BatchSize at load time.
type PipelineConfig struct {
	BatchSize           int `json:"batch_size" envconfig:"CINEFEED_PIPELINE_BATCH_SIZE"`
	QueueCapacity       int `json:"queue_capacity" envconfig:"CINEFEED_PIPELINE_QUEUE_CAPACITY"`
	ProducerIntervalSec int `json:"producer_interval_sec" envconfig:"CINEFEED_PIPELINE_PRODUCER_INTERVAL_SEC"`
	LoaderIntervalSec   int `json:"loader_interval_sec" envconfig:"CINEFEED_PIPELINE_LOADER_INTERVAL_SEC"`
	DrainTimeoutSec     int `json:"drain_timeout_sec" envconfig:"CINEFEED_PIPELINE_DRAIN_TIMEOUT_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type Notification struct {
	Slack SlackWebhook `json:"slack"`
}

type Configuration struct {
	ProjectName  string           `json:"project_name" envconfig:"CINEFEED_PROJECT_NAME"`
	DataSource   DataSourceConfig `json:"data_source"`
	TypeSense    TypeSenseConfig  `json:"typesense"`
	TypeSenseKey string           `json:"type_sense_key" envconfig:"CINEFEED_TYPESENSE_KEY"`
	Pipeline     PipelineConfig   `json:"pipeline"`
	Notification Notification     `json:"notification"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("cinefeed", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called cinefeed.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Cinefeed ETL"
	}

	if cnf.TypeSense.Dns == "" {
		cnf.TypeSense.Dns = "http://typesense:8108"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.TypeSense.Dns = strings.TrimSpace(cnf.TypeSense.Dns)

	if cnf.Pipeline.BatchSize <= 0 {
		cnf.Pipeline.BatchSize = DEFAULT_BATCH_SIZE
	}
	if cnf.Pipeline.QueueCapacity <= 0 {
		// one full batch plus the end-of-batch marker
		cnf.Pipeline.QueueCapacity = cnf.Pipeline.BatchSize + 1
	}
	if cnf.Pipeline.QueueCapacity <= cnf.Pipeline.BatchSize {
		log.Printf("Warning: Queue capacity %d cannot hold a full batch of %d. Raising it.", cnf.Pipeline.QueueCapacity, cnf.Pipeline.BatchSize)
		cnf.Pipeline.QueueCapacity = cnf.Pipeline.BatchSize + 1
	}
	if cnf.Pipeline.ProducerIntervalSec <= 0 {
		cnf.Pipeline.ProducerIntervalSec = DEFAULT_INTERVAL_SEC
	}
	if cnf.Pipeline.LoaderIntervalSec <= 0 {
		cnf.Pipeline.LoaderIntervalSec = DEFAULT_INTERVAL_SEC
	}
	if cnf.Pipeline.DrainTimeoutSec <= 0 {
		cnf.Pipeline.DrainTimeoutSec = DEFAULT_DRAIN_TIMEOUT
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
