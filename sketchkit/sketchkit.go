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

// Package sketchkit collects small, reusable Map_/Sketch implementations,
// the way combine_test.go's SumFn/MeanFn give the teacher SDK's combiner
// tests concrete numeric accumulators to exercise instead of reinventing
// one per test. Every type here registers itself with dataset.RegisterMap
// or dataset.RegisterSketch in an init func so it can also be named across
// the RPC boundary by a remote session.
package sketchkit

import (
	"golang.org/x/exp/constraints"

	"hillview.dev/dataset/dataset"
)

// Sum accumulates the arithmetic total of every leaf visited.
type Sum[E constraints.Integer | constraints.Float] struct{}

func (Sum[E]) Zero() E               { var z E; return z }
func (Sum[E]) Create(e E) (E, error) { return e, nil }
func (Sum[E]) Add(a, b E) (E, error) { return a + b, nil }

// Count tallies the number of leaves visited, independent of their value.
type Count[E any] struct{}

func (Count[E]) Zero() int64                   { return 0 }
func (Count[E]) Create(E) (int64, error)       { return 1, nil }
func (Count[E]) Add(a, b int64) (int64, error) { return a + b, nil }

// MeanAccum is Mean's running accumulator: a count and a running sum,
// mirroring combine_test.go's meanAccum.
type MeanAccum[E constraints.Integer | constraints.Float] struct {
	Count int64
	Sum   E
}

// Mean computes the arithmetic mean over every leaf visited. Its zero
// value (Count: 0, Sum: 0) is the additive identity the zero-priming
// contract requires.
type Mean[E constraints.Integer | constraints.Float] struct{}

func (Mean[E]) Zero() MeanAccum[E] { return MeanAccum[E]{} }

func (Mean[E]) Create(e E) (MeanAccum[E], error) {
	return MeanAccum[E]{Count: 1, Sum: e}, nil
}

func (Mean[E]) Add(a, b MeanAccum[E]) (MeanAccum[E], error) {
	return MeanAccum[E]{Count: a.Count + b.Count, Sum: a.Sum + b.Sum}, nil
}

// Value returns the accumulated mean, or 0 if no leaves were visited yet.
func (a MeanAccum[E]) Value() float64 {
	if a.Count == 0 {
		return 0
	}
	return float64(a.Sum) / float64(a.Count)
}

// Identity passes every leaf through unchanged, useful as a Zip/Map
// placeholder in tests and as a RemoteDataSet round-trip smoke test.
type Identity[T any] struct{}

func (Identity[T]) Apply(t T) (T, error) { return t, nil }

// StringLength maps a string leaf to its length in bytes.
type StringLength struct{}

func (StringLength) Apply(s string) (int, error) { return len(s), nil }

func init() {
	dataset.RegisterSketch(func() dataset.Sketch_[int64, int64] { return &Sum[int64]{} })
	dataset.RegisterSketch(func() dataset.Sketch_[float64, float64] { return &Sum[float64]{} })
	dataset.RegisterSketch(func() dataset.Sketch_[int64, int64] { return &Count[int64]{} })
	dataset.RegisterSketch(func() dataset.Sketch_[int64, MeanAccum[int64]] { return &Mean[int64]{} })
	dataset.RegisterMap(func() dataset.Map_[int64, int64] { return &Identity[int64]{} })
	dataset.RegisterMap(func() dataset.Map_[string, int] { return &StringLength{} })
}
