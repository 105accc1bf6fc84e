// Licensed to the Apache Software Foundation (ASF) under one or more
// contributor license agreements.  See the NOTICE file distributed with
// this work for additional information regarding copyright ownership.
// The ASF licenses this file to You under the Apache License, Version 2.0
// (the "License"); you may not use this file except in compliance with
// the License.  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package stream

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Merge runs every source in srcs concurrently, delivering whichever
// values arrive as they arrive rather than preserving srcs' order. This is
// the channel backbone behind ParallelDataSet's fan-out: one child per
// worker, merged into a single subscriber-facing item sequence (spec.md
// section 4.4, "children run concurrently and their partial results are
// interleaved as they complete, not ordered by child index").
func Merge[T any](srcs ...Source[T]) Source[T] {
	return func(ctx context.Context, emit func(T) error) error {
		if len(srcs) == 0 {
			return nil
		}
		cctx, cancel := context.WithCancel(ctx)
		defer cancel()
		out := make(chan T)
		g, gctx := errgroup.WithContext(cctx)
		for _, s := range srcs {
			s := s
			g.Go(func() error {
				return s.Run(gctx, func(v T) error {
					select {
					case out <- v:
						return nil
					case <-gctx.Done():
						return gctx.Err()
					}
				})
			})
		}
		done := make(chan error, 1)
		go func() {
			done <- g.Wait()
			close(out)
		}()
		for v := range out {
			if err := emit(v); err != nil {
				return err
			}
		}
		return <-done
	}
}

// Indexed pairs a value with the position of the source that produced it,
// so a merge's subscriber can tell which child of a ParallelDataSet a
// value came from without losing the concurrency of Merge.
type Indexed[T any] struct {
	Index int
	Value T
}

// MergeIndexed behaves like Merge, except each emitted value is tagged
// with the index of the source (within srcs) that produced it. This is
// what ParallelDataSet's Map/Zip use to know which position to update in
// the assembled result as children finish out of order.
func MergeIndexed[T any](srcs ...Source[T]) Source[Indexed[T]] {
	tagged := make([]Source[Indexed[T]], len(srcs))
	for i, s := range srcs {
		i, s := i, s
		tagged[i] = Map(s, func(v T) Indexed[T] {
			return Indexed[T]{Index: i, Value: v}
		})
	}
	return Merge(tagged...)
}

// Scheduler runs units of work on a bounded pool of goroutines, the way
// ObserveOn hops execution onto Schedulers.computation() in the Hillview
// original. A Scheduler is safe to share across many concurrent Sources,
// which is what makes it a pool rather than a per-call worker. A zero
// value Scheduler runs work inline, unbounded.
type Scheduler struct {
	sem chan struct{}
}

// NewScheduler returns a Scheduler allowing at most poolSize units of work
// to execute concurrently across everything that shares it. poolSize <= 0
// means unbounded.
func NewScheduler(poolSize int) *Scheduler {
	if poolSize <= 0 {
		return &Scheduler{}
	}
	return &Scheduler{sem: make(chan struct{}, poolSize)}
}

func (s *Scheduler) run(ctx context.Context, fn func()) error {
	if s == nil || s.sem == nil {
		fn()
		return nil
	}
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() { <-s.sem }()
		fn()
	}()
	<-done
	return nil
}

// ObserveOn returns a Source equivalent to s, except that each emit call
// happens after hopping onto a worker drawn from sch. This is what backs
// the separate_thread option (spec.md section 6): disabling it means
// skipping ObserveOn entirely and running inline on the subscriber's own
// goroutine. A nil sch also runs inline.
func ObserveOn[T any](s Source[T], sch *Scheduler) Source[T] {
	return func(ctx context.Context, emit func(T) error) error {
		var emitErr error
		err := s.Run(ctx, func(v T) error {
			runErr := sch.run(ctx, func() {
				emitErr = emit(v)
			})
			if runErr != nil {
				return runErr
			}
			return emitErr
		})
		if err != nil {
			return err
		}
		return emitErr
	}
}
