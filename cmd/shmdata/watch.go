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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/finom/elegant-threading/shmdata"
)

// errRegionRemoved ends watch when the backing file is unlinked.
var errRegionRemoved = errors.New("region removed")

// watchRemoval returns a channel closed when the file at path is removed or
// renamed away. The directory is watched because the file itself may not
// report its own removal on every platform.
func watchRemoval(ctx context.Context, path string) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, err
	}
	removed := make(chan struct{})
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) == filepath.Clean(path) && (event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
					close(removed)
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.WarnContext(ctx, "Error watching region", "err", err)
			}
		}
	}()
	return removed, nil
}

// watch prints the document each time its stored bytes change, polling with
// unlocked reads so it never contends with writers. Reads that observe a
// write in progress are skipped.
func watch(ctx context.Context, r *shmdata.Region, interval time.Duration, removed <-chan struct{}, w io.Writer) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last []byte
	first := true
	for {
		raw, err := r.ReadRaw()
		if err != nil {
			return err
		}
		if first || !bytes.Equal(raw, last) {
			doc, err := shmdata.Decode(raw)
			var decErr *shmdata.DecodeError
			switch {
			case errors.As(err, &decErr):
				slog.DebugContext(ctx, "Skipping torn read", "bytes", len(raw))
			case err != nil:
				return err
			default:
				if err := printDocument(w, doc); err != nil {
					return err
				}
				last = raw
				first = false
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-removed:
			return errRegionRemoved
		case <-ticker.C:
		}
	}
}

func runWatch(ctx context.Context, cfg *Config, args []string, w io.Writer) error {
	return withRegion(cfg, func(r *shmdata.Region) error {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		path := shmdata.Path(cfg.Name)
		removed, err := watchRemoval(ctx, path)
		if err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		slog.InfoContext(ctx, "Watching region", "name", cfg.Name, "interval", cfg.Interval)
		err = watch(ctx, r, cfg.Interval, removed, w)
		if errors.Is(err, errRegionRemoved) {
			slog.InfoContext(ctx, "Region removed, stopping", "name", cfg.Name)
			return nil
		}
		return err
	})
}
