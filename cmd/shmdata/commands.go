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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"time"

	"github.com/finom/elegant-threading/shmdata"
)

type command func(ctx context.Context, cfg *Config, args []string, w io.Writer) error

var commands = map[string]command{
	"create": runCreate,
	"remove": runRemove,
	"get":    runGet,
	"read":   runRead,
	"set":    runSet,
	"incr":   runIncr,
	"stats":  runStats,
	"bench":  runBench,
	"watch":  runWatch,
}

// lockContext bounds the wait for the region lock by cfg.LockTimeout.
func lockContext(ctx context.Context, cfg *Config) (context.Context, context.CancelFunc) {
	if cfg.LockTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, cfg.LockTimeout)
}

// withRegion opens the configured region for the duration of fn.
func withRegion(cfg *Config, fn func(r *shmdata.Region) error) error {
	r, err := shmdata.Open(cfg.Name)
	if err != nil {
		return err
	}
	defer r.Close()
	return fn(r)
}

func printDocument(w io.Writer, doc shmdata.Document) error {
	data, err := shmdata.Encode(doc)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func runCreate(ctx context.Context, cfg *Config, args []string, w io.Writer) error {
	r, err := shmdata.Create(cfg.Name, cfg.Capacity)
	if err != nil {
		return err
	}
	defer r.Close()
	slog.InfoContext(ctx, "Created region", "name", cfg.Name, "path", shmdata.Path(cfg.Name), "capacity", r.Capacity())
	return nil
}

func runRemove(ctx context.Context, cfg *Config, args []string, w io.Writer) error {
	if err := shmdata.Remove(cfg.Name); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Removed region", "name", cfg.Name)
	return nil
}

func runGet(ctx context.Context, cfg *Config, args []string, w io.Writer) error {
	return withRegion(cfg, func(r *shmdata.Region) error {
		lctx, cancel := lockContext(ctx, cfg)
		defer cancel()
		doc, _, err := r.Transact(lctx, nil)
		if err != nil {
			return err
		}
		return printDocument(w, doc)
	})
}

func runRead(ctx context.Context, cfg *Config, args []string, w io.Writer) error {
	return withRegion(cfg, func(r *shmdata.Region) error {
		doc, err := r.Read()
		if err != nil {
			return err
		}
		return printDocument(w, doc)
	})
}

func runSet(ctx context.Context, cfg *Config, args []string, w io.Writer) error {
	if len(args) != 1 || args[0] == "" {
		return errors.New("set takes exactly one non-empty JSON argument")
	}
	doc, err := shmdata.Decode([]byte(args[0]))
	if err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}
	return withRegion(cfg, func(r *shmdata.Region) error {
		lctx, cancel := lockContext(ctx, cfg)
		defer cancel()
		prev, _, err := r.Transact(lctx, func(shmdata.Document) (shmdata.Outcome, error) {
			return shmdata.Replace(doc), nil
		})
		if err != nil {
			return err
		}
		slog.DebugContext(ctx, "Replaced document", "name", cfg.Name, "previous", prev)
		return printDocument(w, doc)
	})
}

// incrementField returns a handler adding one to the numeric field of an
// object document. A missing document or field counts as zero. The previous
// document is copied, not updated in place.
func incrementField(field string) shmdata.Handler {
	return func(d shmdata.Document) (shmdata.Outcome, error) {
		m := map[string]any{}
		switch v := d.(type) {
		case nil:
		case map[string]any:
			m = maps.Clone(v)
		default:
			return shmdata.Keep(), fmt.Errorf("document is %T, not an object", d)
		}
		var n float64
		switch v := m[field].(type) {
		case nil:
		case float64:
			n = v
		default:
			return shmdata.Keep(), fmt.Errorf("field %q is %T, not a number", field, v)
		}
		m[field] = n + 1
		return shmdata.Replace(m), nil
	}
}

func runIncr(ctx context.Context, cfg *Config, args []string, w io.Writer) error {
	return withRegion(cfg, func(r *shmdata.Region) error {
		lctx, cancel := lockContext(ctx, cfg)
		defer cancel()
		_, next, err := r.Transact(lctx, incrementField(cfg.Field))
		if err != nil {
			return err
		}
		return printDocument(w, next)
	})
}

func runStats(ctx context.Context, cfg *Config, args []string, w io.Writer) error {
	return withRegion(cfg, func(r *shmdata.Region) error {
		st, err := r.Stats()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "name:             %s\npath:             %s\ncapacity:         %d\npayload capacity: %d\nlength:           %d\nlock:             %s\n",
			cfg.Name, shmdata.Path(cfg.Name), st.Capacity, st.PayloadCapacity, st.Length, st.Lock)
		return err
	})
}

// counterValue reads field from the document under the lock.
func counterValue(ctx context.Context, r *shmdata.Region, field string) (float64, error) {
	doc, _, err := r.Transact(ctx, nil)
	if err != nil {
		return 0, err
	}
	m, _ := doc.(map[string]any)
	n, _ := m[field].(float64)
	return n, nil
}

func elapsedSince(start time.Time) time.Duration {
	return time.Since(start).Round(time.Microsecond)
}
