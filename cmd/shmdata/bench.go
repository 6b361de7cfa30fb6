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
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/finom/elegant-threading/shmdata"
)

// BenchResult summarizes a bench run.
type BenchResult struct {
	Start    float64       // counter value before the run
	Final    float64       // counter value after the run
	Expected float64       // Start + workers*iterations
	Elapsed  time.Duration // wall time of the increments
}

// Lost returns how many increments are missing from the final value.
func (b BenchResult) Lost() float64 {
	return b.Expected - b.Final
}

// bench runs cfg.Workers goroutines each incrementing cfg.Field
// cfg.Iterations times. A positive cfg.Rate caps transactions per second
// across all workers.
func bench(ctx context.Context, r *shmdata.Region, cfg *Config) (BenchResult, error) {
	var res BenchResult
	start, err := counterValue(ctx, r, cfg.Field)
	if err != nil {
		return res, err
	}
	res.Start = start
	res.Expected = start + float64(cfg.Workers*cfg.Iterations)

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}

	handler := incrementField(cfg.Field)
	t0 := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.Workers; w++ {
		g.Go(func() error {
			for i := 0; i < cfg.Iterations; i++ {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
				lctx, cancel := lockContext(gctx, cfg)
				_, _, err := r.Transact(lctx, handler)
				cancel()
				if err != nil {
					return fmt.Errorf("worker %d: %w", w, err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	res.Elapsed = elapsedSince(t0)

	if res.Final, err = counterValue(ctx, r, cfg.Field); err != nil {
		return res, err
	}
	return res, nil
}

// opsPerSecond returns the transaction rate, or 0 when no time was measured.
func opsPerSecond(ops int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(ops) / elapsed.Seconds()
}

func runBench(ctx context.Context, cfg *Config, args []string, w io.Writer) error {
	return withRegion(cfg, func(r *shmdata.Region) error {
		slog.InfoContext(ctx, "Starting bench", "name", cfg.Name, "workers", cfg.Workers, "iterations", cfg.Iterations, "rate", cfg.Rate)
		res, err := bench(ctx, r, cfg)
		if err != nil {
			return err
		}
		ops := cfg.Workers * cfg.Iterations
		slog.InfoContext(ctx, "Bench done", "transactions", ops, "elapsed", res.Elapsed,
			"per_second", fmt.Sprintf("%.0f", opsPerSecond(ops, res.Elapsed)))
		fmt.Fprintf(w, "%s: %g -> %g (expected %g)\n", cfg.Field, res.Start, res.Final, res.Expected)
		if res.Final != res.Expected {
			// Other processes may be writing too; only a shortfall is a lost update.
			if res.Lost() > 0 {
				return fmt.Errorf("lost %g updates", res.Lost())
			}
			slog.WarnContext(ctx, "Counter advanced by other writers during bench", "extra", -res.Lost())
		}
		return nil
	})
}
