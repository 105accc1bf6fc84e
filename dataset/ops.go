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

// Map applies m to d, dispatching on d's Kind, and returns the stream of
// partial results spec.md section 4.2/4.3/4.4 describes: a single
// emission for Local, a δ/N-scaled merge for Parallel, and a decoded
// RPC response stream for Remote.
func Map[T, S any](ctx context.Context, d DataSet[T], m Map_[T, S], opts ...Options) stream.Source[PartialResult[DataSet[S]]] {
	return mapOp(ctx, d, m, resolve(opts))
}

func mapOp[T, S any](ctx context.Context, d DataSet[T], m Map_[T, S], o *dsopts.Struct) stream.Source[PartialResult[DataSet[S]]] {
	switch d.Kind() {
	case KindLocal:
		return mapLocal(d, m, o)
	case KindParallel:
		return mapParallel(ctx, d, m, o)
	case KindRemote:
		return mapRemote(d, m, o)
	default:
		return errSource[PartialResult[DataSet[S]]](dserrors.New(dserrors.CodeUnknown, "map: unknown dataset kind %s", d.Kind()))
	}
}

// FlatMap applies m to d, flattening one level so that a Parallel
// dataset's flatMap result is itself a single flat Parallel rather than a
// Parallel of Parallels.
func FlatMap[T, S any](ctx context.Context, d DataSet[T], m FlatMap_[T, S], opts ...Options) stream.Source[PartialResult[DataSet[S]]] {
	return flatMapOp(ctx, d, m, resolve(opts))
}

func flatMapOp[T, S any](ctx context.Context, d DataSet[T], m FlatMap_[T, S], o *dsopts.Struct) stream.Source[PartialResult[DataSet[S]]] {
	switch d.Kind() {
	case KindLocal:
		return flatMapLocal(d, m, o)
	case KindParallel:
		return flatMapParallel(ctx, d, m, o)
	case KindRemote:
		return flatMapRemote(d, m, o)
	default:
		return errSource[PartialResult[DataSet[S]]](dserrors.New(dserrors.CodeUnknown, "flatMap: unknown dataset kind %s", d.Kind()))
	}
}

// Zip pairs d with other positionally, requiring matching shapes: both
// Local, or both Parallel with equal child counts, or both Remote on the
// same server. A shape mismatch fails with TypeMismatch or ShapeMismatch.
func Zip[T, S any](ctx context.Context, d DataSet[T], other DataSet[S], opts ...Options) stream.Source[PartialResult[DataSet[Pair[T, S]]]] {
	return zipOp(ctx, d, other, resolve(opts))
}

func zipOp[T, S any](ctx context.Context, d DataSet[T], other DataSet[S], o *dsopts.Struct) stream.Source[PartialResult[DataSet[Pair[T, S]]]] {
	switch d.Kind() {
	case KindLocal:
		return zipLocal(d, other, o)
	case KindParallel:
		return zipParallel(ctx, d, other, o)
	case KindRemote:
		return zipRemote(d, other, o)
	default:
		return errSource[PartialResult[DataSet[Pair[T, S]]]](dserrors.New(dserrors.CodeUnknown, "zip: unknown dataset kind %s", d.Kind()))
	}
}

// Sketch folds sk over every leaf of d, emitting a zero-priming item
// first and a running accumulator thereafter, terminating with the fully
// folded result.
func Sketch[T, R any](ctx context.Context, d DataSet[T], sk Sketch_[T, R], opts ...Options) stream.Source[PartialResult[R]] {
	return sketchOp(ctx, d, sk, resolve(opts))
}

func sketchOp[T, R any](ctx context.Context, d DataSet[T], sk Sketch_[T, R], o *dsopts.Struct) stream.Source[PartialResult[R]] {
	switch d.Kind() {
	case KindLocal:
		return sketchLocal(d, sk, o)
	case KindParallel:
		return sketchParallel(ctx, d, sk, o)
	case KindRemote:
		return sketchRemote(d, sk, o)
	default:
		return errSource[PartialResult[R]](dserrors.New(dserrors.CodeUnknown, "sketch: unknown dataset kind %s", d.Kind()))
	}
}
