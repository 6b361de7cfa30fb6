/*
 *
 * Copyright 2025 The elegant-threading Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by every subcommand. Values come from an
// optional YAML file and are overridden by flags given on the command line.
type Config struct {
	Name        string        `yaml:"name"`
	Capacity    int           `yaml:"capacity"`
	LockTimeout time.Duration `yaml:"lock_timeout"`
	LogLevel    string        `yaml:"log_level"`
	Field       string        `yaml:"field"`
	Workers     int           `yaml:"workers"`
	Iterations  int           `yaml:"iterations"`
	Rate        float64       `yaml:"rate"`
	Interval    time.Duration `yaml:"interval"`
}

// DefaultConfig returns the settings used when neither a config file nor a
// flag provides a value.
func DefaultConfig() Config {
	return Config{
		Capacity:    64 * 1024,
		LockTimeout: 5 * time.Second,
		LogLevel:    "info",
		Field:       "n",
		Workers:     10,
		Iterations:  100,
		Interval:    100 * time.Millisecond,
	}
}

// LoadConfig reads a YAML config file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path) //nolint:gosec // User-specified config path
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that do not depend on the subcommand.
func (c *Config) Validate() error {
	var errs []error
	if c.Capacity < 0 {
		errs = append(errs, fmt.Errorf("capacity must not be negative, got %d", c.Capacity))
	}
	if c.LockTimeout < 0 {
		errs = append(errs, fmt.Errorf("lock_timeout must not be negative, got %s", c.LockTimeout))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.Iterations < 1 {
		errs = append(errs, fmt.Errorf("iterations must be at least 1, got %d", c.Iterations))
	}
	if c.Rate < 0 {
		errs = append(errs, fmt.Errorf("rate must not be negative, got %g", c.Rate))
	}
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %s", c.Interval))
	}
	if c.Field == "" {
		errs = append(errs, errors.New("field must not be empty"))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("invalid log_level %q: %w", s, err)
	}
	return l, nil
}
