package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Job is one scheduled scrub-and-defrag run: scrub Source into Dest on the
// given cron Schedule (standard 5-field, robfig/cron syntax).
type Job struct {
	Name     string `yaml:"name"`
	Source   string `yaml:"source"`
	Dest     string `yaml:"dest"`
	Schedule string `yaml:"schedule"`
	Verbose  bool   `yaml:"verbose"`
}

// Config is the daemon's job list.
type Config struct {
	Jobs []Job `yaml:"jobs"`
}

// LoadConfig reads and validates a YAML job-list file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	for i, job := range cfg.Jobs {
		if job.Name == "" {
			return nil, fmt.Errorf("job %d: name is required", i)
		}
		if job.Source == "" || job.Dest == "" {
			return nil, fmt.Errorf("job %q: source and dest are required", job.Name)
		}
		if job.Schedule == "" {
			return nil, fmt.Errorf("job %q: schedule is required", job.Name)
		}
	}
	return &cfg, nil
}
