package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the service configuration, loaded from a YAML file with
// sensible defaults for anything omitted.
type Config struct {
	Scheduler struct {
		Interval   time.Duration `yaml:"interval"`
		NumWorkers int           `yaml:"num_workers"`
	} `yaml:"scheduler"`
	NATS struct {
		URL           string `yaml:"url"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`
	ListenAddr string `yaml:"listen_addr"`
}

func defaultConfig() Config {
	var cfg Config
	cfg.Scheduler.Interval = time.Minute
	cfg.Scheduler.NumWorkers = 4
	cfg.NATS.URL = "nats://localhost:4222"
	cfg.NATS.SubjectPrefix = "gridiron.notices"
	cfg.ListenAddr = ":8082"
	return cfg
}

// loadConfig reads the YAML config at path. A missing file yields the
// defaults; a malformed file is an error.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
