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

// Command shmdata creates, inspects and modifies shared memory JSON regions
// from the shell.
//
// Usage:
//
//	shmdata [flags] <command> [args]
//
// Commands: create, remove, get, read, set <json>, incr, stats, bench, watch.
// Settings are read from -config (YAML) and overridden by flags.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "shmdata: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	def := DefaultConfig()
	configPath := flag.String("config", "", "Path to a YAML config file")
	name := flag.String("name", def.Name, "Region name")
	capacity := flag.Int("capacity", def.Capacity, "Region capacity in bytes, header included (create)")
	lockTimeout := flag.Duration("lock-timeout", def.LockTimeout, "Maximum wait for the region lock (0 waits forever)")
	logLevel := flag.String("log-level", def.LogLevel, "Log level (debug, info, warn, error)")
	field := flag.String("field", def.Field, "Counter field (incr, bench)")
	workers := flag.Int("workers", def.Workers, "Concurrent writers (bench)")
	iterations := flag.Int("iterations", def.Iterations, "Increments per writer (bench)")
	rateLimit := flag.Float64("rate", def.Rate, "Maximum transactions per second across writers, 0 for unlimited (bench)")
	interval := flag.Duration("interval", def.Interval, "Poll interval (watch)")
	flag.Usage = usage
	flag.Parse()

	cfg := def
	if *configPath != "" {
		var err error
		if cfg, err = LoadConfig(*configPath); err != nil {
			return err
		}
	}

	// Flags given explicitly win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			cfg.Name = *name
		case "capacity":
			cfg.Capacity = *capacity
		case "lock-timeout":
			cfg.LockTimeout = *lockTimeout
		case "log-level":
			cfg.LogLevel = *logLevel
		case "field":
			cfg.Field = *field
		case "workers":
			cfg.Workers = *workers
		case "iterations":
			cfg.Iterations = *iterations
		case "rate":
			cfg.Rate = *rateLimit
		case "interval":
			cfg.Interval = *interval
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		return errors.New("missing command")
	}

	level, _ := parseLevel(cfg.LogLevel)
	slog.SetDefault(newLogger(level))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", args[0])
	}
	if cfg.Name == "" {
		return errors.New("-name is required")
	}
	return cmd(ctx, &cfg, args[1:], os.Stdout)
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Drop zero durations and empty strings.
			switch v := a.Value.Any().(type) {
			case string:
				if v == "" {
					return slog.Attr{}
				}
			case time.Duration:
				if v == 0 {
					return slog.Attr{}
				}
			}
			return a
		},
	}))
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: shmdata [flags] <command> [args]

Commands:
  create        create a named region of -capacity bytes
  remove        unlink a named region
  get           print the document, read under the lock
  read          print the document without taking the lock
  set <json>    replace the document
  incr          increment -field by one
  stats         print the region header
  bench         run -workers writers doing -iterations increments each
  watch         print the document whenever it changes, until the region is removed

Flags:
`)
	flag.PrintDefaults()
}
