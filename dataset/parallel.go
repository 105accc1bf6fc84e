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

func mapParallel[T, S any](ctx context.Context, d DataSet[T], m Map_[T, S], opts *dsopts.Struct) stream.Source[PartialResult[DataSet[S]]] {
	children := d.Children()
	n := len(children)
	if n == 0 {
		return stream.Of(Result[DataSet[S]](1.0, Parallel[S]()))
	}
	childSrcs := make([]stream.Source[PartialResult[DataSet[S]]], n)
	for i, c := range children {
		childSrcs[i] = mapOp(ctx, c, m, opts)
	}
	indexed := stream.MergeIndexed(childSrcs...)
	return func(ctx context.Context, emit func(PartialResult[DataSet[S]]) error) error {
		current := make([]DataSet[S], n)
		return indexed.Run(ctx, func(iv stream.Indexed[PartialResult[DataSet[S]]]) error {
			pr := iv.Value
			if pr.HasPayload() {
				current[iv.Index] = pr.Payload
			}
			snapshot := append([]DataSet[S]{}, current...)
			return emit(Result(pr.DeltaDone/float64(n), Parallel(snapshot...)))
		})
	}
}

func flatMapParallel[T, S any](ctx context.Context, d DataSet[T], m FlatMap_[T, S], opts *dsopts.Struct) stream.Source[PartialResult[DataSet[S]]] {
	children := d.Children()
	n := len(children)
	if n == 0 {
		return stream.Of(Result[DataSet[S]](1.0, Parallel[S]()))
	}
	childSrcs := make([]stream.Source[PartialResult[DataSet[S]]], n)
	for i, c := range children {
		childSrcs[i] = flatMapOp(ctx, c, m, opts)
	}
	indexed := stream.MergeIndexed(childSrcs...)
	return func(ctx context.Context, emit func(PartialResult[DataSet[S]]) error) error {
		current := make([]DataSet[S], n)
		for i := range current {
			current[i] = Parallel[S]()
		}
		return indexed.Run(ctx, func(iv stream.Indexed[PartialResult[DataSet[S]]]) error {
			pr := iv.Value
			if pr.HasPayload() {
				current[iv.Index] = pr.Payload
			}
			var flat []DataSet[S]
			for _, c := range current {
				if c.Kind() == KindParallel {
					flat = append(flat, c.Children()...)
				} else {
					flat = append(flat, c)
				}
			}
			return emit(Result(pr.DeltaDone/float64(n), Parallel(flat...)))
		})
	}
}

func zipParallel[T, S any](ctx context.Context, d DataSet[T], other DataSet[S], opts *dsopts.Struct) stream.Source[PartialResult[DataSet[Pair[T, S]]]] {
	children := d.Children()
	n := len(children)
	if other.Kind() != KindParallel {
		return errSource[PartialResult[DataSet[Pair[T, S]]]](
			dserrors.ShapeMismatch("zip: Parallel dataset with %d children requires a Parallel peer, got %s", n, other.Kind()))
	}
	oChildren := other.Children()
	if len(oChildren) != n {
		return errSource[PartialResult[DataSet[Pair[T, S]]]](
			dserrors.ShapeMismatch("zip: child count mismatch, %d vs %d", n, len(oChildren)))
	}
	if n == 0 {
		return stream.Of(Result[DataSet[Pair[T, S]]](1.0, Parallel[Pair[T, S]]()))
	}
	childSrcs := make([]stream.Source[PartialResult[DataSet[Pair[T, S]]]], n)
	for i := range children {
		childSrcs[i] = zipOp(ctx, children[i], oChildren[i], opts)
	}
	indexed := stream.MergeIndexed(childSrcs...)
	return func(ctx context.Context, emit func(PartialResult[DataSet[Pair[T, S]]]) error) error {
		current := make([]DataSet[Pair[T, S]], n)
		return indexed.Run(ctx, func(iv stream.Indexed[PartialResult[DataSet[Pair[T, S]]]]) error {
			pr := iv.Value
			if pr.HasPayload() {
				current[iv.Index] = pr.Payload
			}
			snapshot := append([]DataSet[Pair[T, S]]{}, current...)
			return emit(Result(pr.DeltaDone/float64(n), Parallel(snapshot...)))
		})
	}
}

func sketchParallel[T, R any](ctx context.Context, d DataSet[T], sk Sketch_[T, R], opts *dsopts.Struct) stream.Source[PartialResult[R]] {
	children := d.Children()
	n := len(children)
	if n == 0 {
		return stream.Of(Result[R](1.0, sk.Zero()))
	}
	childSrcs := make([]stream.Source[PartialResult[R]], n)
	for i, c := range children {
		childSrcs[i] = sketchOp(ctx, c, sk, opts)
	}
	merged := stream.Merge(childSrcs...)
	return func(ctx context.Context, emit func(PartialResult[R]) error) error {
		acc := sk.Zero()
		if err := emit(Result(0.0, acc)); err != nil {
			return err
		}
		return merged.Run(ctx, func(pr PartialResult[R]) error {
			if pr.HasPayload() {
				next, err := sk.Add(acc, pr.Payload)
				if err != nil {
					return dserrors.UserCodeFailure(err)
				}
				acc = next
			}
			return emit(Result(pr.DeltaDone/float64(n), acc))
		})
	}
}

// errSource returns a Source that fails immediately with err without
// emitting anything, used for operations that can detect a fatal shape
// mismatch before any child work would begin.
func errSource[T any](err error) stream.Source[T] {
	return func(ctx context.Context, emit func(T) error) error {
		return err
	}
}
