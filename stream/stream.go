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

// Package stream implements the cold, lazy, cancellable item source that
// backs every dataset subscription (spec.md section 5: "a dataset
// subscription behaves like a cold observable: nothing runs until
// subscribed, and disposing a subscription is safe to call more than
// once and stops the underlying work promptly"). It plays the role
// RxJava's Flowable plays in the Hillview original, rebuilt on
// channels, context.Context and golang.org/x/sync/errgroup instead of
// operator chains, since neither the teacher SDK nor Go has an Rx
// analogue in scope here.
package stream

import (
	"context"
	"sync"
)

// Source produces a sequence of T values by calling emit for each one, in
// order, stopping early if emit returns an error or ctx is cancelled. A
// Source does no work until Run is called: constructing one is free.
type Source[T any] func(ctx context.Context, emit func(T) error) error

// Run starts s and blocks until it finishes, is cancelled, or emit returns
// an error. It is the only way to observe a Source's values; calling Run
// twice runs the work twice, since Sources are cold.
func (s Source[T]) Run(ctx context.Context, emit func(T) error) error {
	return s(ctx, emit)
}

// Of returns a Source that emits the given values, in order, then
// completes.
func Of[T any](vs ...T) Source[T] {
	return func(ctx context.Context, emit func(T) error) error {
		for _, v := range vs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := emit(v); err != nil {
				return err
			}
		}
		return nil
	}
}

// Map returns a Source producing f(v) for every v produced by s.
func Map[T, R any](s Source[T], f func(T) R) Source[R] {
	return func(ctx context.Context, emit func(R) error) error {
		return s.Run(ctx, func(v T) error {
			return emit(f(v))
		})
	}
}

// Concat returns a Source that runs each of srcs in turn, in order,
// stopping at the first error or cancellation.
func Concat[T any](srcs ...Source[T]) Source[T] {
	return func(ctx context.Context, emit func(T) error) error {
		for _, s := range srcs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.Run(ctx, emit); err != nil {
				return err
			}
		}
		return nil
	}
}

// A Subscription represents one active Run of a Source. Dispose cancels
// the underlying work and is safe to call more than once; only the first
// call has any effect.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Dispose cancels the subscription's work and waits for it to stop.
// Calling Dispose more than once is a no-op after the first call.
func (sub *Subscription) Dispose() {
	sub.once.Do(func() {
		sub.cancel()
		<-sub.done
	})
}

// Subscribe starts s in its own goroutine, delivering every emitted value
// to onNext and, once s finishes (successfully, with an error, or because
// the returned Subscription was disposed), calling onDone exactly once
// with the terminal error (nil on clean completion, context.Canceled on
// dispose).
func Subscribe[T any](ctx context.Context, s Source[T], onNext func(T), onDone func(error)) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		err := s.Run(ctx, func(v T) error {
			onNext(v)
			return ctx.Err()
		})
		onDone(err)
	}()
	return sub
}
