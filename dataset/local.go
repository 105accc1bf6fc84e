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

package dataset

import (
	"context"

	"hillview.dev/dataset/internal/dserrors"
	"hillview.dev/dataset/internal/dsopts"
	"hillview.dev/dataset/stream"
)

// computeScheduler returns the scheduler an operation should hop onto
// before delivering its result, or nil if separate_thread is disabled.
// Every call builds a fresh pool-sized Scheduler; no Scheduler is shared
// between operations.
func computeScheduler(opts *dsopts.Struct) *stream.Scheduler {
	if !opts.ResolvedSeparateThread() {
		return nil
	}
	return stream.NewScheduler(opts.ResolvedComputePoolSize())
}

func mapLocal[T, S any](d DataSet[T], m Map_[T, S], opts *dsopts.Struct) stream.Source[PartialResult[DataSet[S]]] {
	src := stream.Source[PartialResult[DataSet[S]]](func(ctx context.Context, emit func(PartialResult[DataSet[S]]) error) error {
		s, err := m.Apply(d.Value())
		if err != nil {
			return dserrors.UserCodeFailure(err)
		}
		return emit(Result(1.0, Local(s)))
	})
	return stream.ObserveOn(src, computeScheduler(opts))
}

func flatMapLocal[T, S any](d DataSet[T], m FlatMap_[T, S], opts *dsopts.Struct) stream.Source[PartialResult[DataSet[S]]] {
	src := stream.Source[PartialResult[DataSet[S]]](func(ctx context.Context, emit func(PartialResult[DataSet[S]]) error) error {
		items, err := m.Apply(d.Value())
		if err != nil {
			return dserrors.UserCodeFailure(err)
		}
		children := make([]DataSet[S], len(items))
		for i, s := range items {
			children[i] = Local(s)
		}
		return emit(Result(1.0, Parallel(children...)))
	})
	return stream.ObserveOn(src, computeScheduler(opts))
}

func zipLocal[T, S any](d DataSet[T], other DataSet[S], opts *dsopts.Struct) stream.Source[PartialResult[DataSet[Pair[T, S]]]] {
	src := stream.Source[PartialResult[DataSet[Pair[T, S]]]](func(ctx context.Context, emit func(PartialResult[DataSet[Pair[T, S]]]) error) error {
		if other.Kind() != KindLocal {
			return dserrors.TypeMismatch("zip: Local dataset requires a Local peer, got %s", other.Kind())
		}
		return emit(Result(1.0, Local(Pair[T, S]{First: d.Value(), Second: other.Value()})))
	})
	return stream.ObserveOn(src, computeScheduler(opts))
}

func sketchLocal[T, R any](d DataSet[T], sk Sketch_[T, R], opts *dsopts.Struct) stream.Source[PartialResult[R]] {
	src := stream.Source[PartialResult[R]](func(ctx context.Context, emit func(PartialResult[R]) error) error {
		if err := emit(Result(0.0, sk.Zero())); err != nil {
			return err
		}
		r, err := sk.Create(d.Value())
		if err != nil {
			return dserrors.UserCodeFailure(err)
		}
		return emit(Result(1.0, r))
	})
	return stream.ObserveOn(src, computeScheduler(opts))
}
