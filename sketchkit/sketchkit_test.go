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

package sketchkit

import (
	"context"
	"testing"

	"hillview.dev/dataset/dataset"
)

func runSketch[T, R any](t *testing.T, d dataset.DataSet[T], sk dataset.Sketch_[T, R]) R {
	t.Helper()
	var last dataset.PartialResult[R]
	err := dataset.Sketch[T, R](context.Background(), d, sk).Run(context.Background(), func(pr dataset.PartialResult[R]) error {
		last = pr
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return last.Payload
}

func TestSumAddsEveryLeaf(t *testing.T) {
	d := dataset.Parallel(dataset.Local(int64(1)), dataset.Local(int64(2)), dataset.Local(int64(3)))
	if got := runSketch[int64, int64](t, d, Sum[int64]{}); got != 6 {
		t.Errorf("sum = %d, want 6", got)
	}
}

func TestSumOfEmptyParallelIsZero(t *testing.T) {
	d := dataset.Parallel[int64]()
	if got := runSketch[int64, int64](t, d, Sum[int64]{}); got != 0 {
		t.Errorf("sum = %d, want 0", got)
	}
}

func TestSumIsAssociativeAcrossBundling(t *testing.T) {
	flat := dataset.Parallel(
		dataset.Local(int64(1)), dataset.Local(int64(2)),
		dataset.Local(int64(3)), dataset.Local(int64(4)),
	)
	nested := dataset.Parallel(
		dataset.Parallel(dataset.Local(int64(1)), dataset.Local(int64(2))),
		dataset.Parallel(dataset.Local(int64(3)), dataset.Local(int64(4))),
	)
	flatSum := runSketch[int64, int64](t, flat, Sum[int64]{})
	nestedSum := runSketch[int64, int64](t, nested, Sum[int64]{})
	if flatSum != nestedSum {
		t.Errorf("flat sum %d != nested sum %d, Sum should be associative under regrouping", flatSum, nestedSum)
	}
}

func TestCountIgnoresLeafValue(t *testing.T) {
	d := dataset.Parallel(dataset.Local("a"), dataset.Local("bb"), dataset.Local("ccc"))
	if got := runSketch[string, int64](t, d, Count[string]{}); got != 3 {
		t.Errorf("count = %d, want 3", got)
	}
}

func TestMeanOfEmptyDatasetIsZero(t *testing.T) {
	d := dataset.Parallel[int64]()
	got := runSketch[int64, MeanAccum[int64]](t, d, Mean[int64]{})
	if got.Value() != 0 {
		t.Errorf("mean of empty dataset = %v, want 0", got.Value())
	}
}

func TestMeanComputesArithmeticAverage(t *testing.T) {
	d := dataset.Parallel(dataset.Local(int64(2)), dataset.Local(int64(4)), dataset.Local(int64(6)))
	got := runSketch[int64, MeanAccum[int64]](t, d, Mean[int64]{})
	if got.Value() != 4 {
		t.Errorf("mean = %v, want 4", got.Value())
	}
}

func TestIdentityPassesLeavesThroughUnchanged(t *testing.T) {
	d := dataset.Local(int64(42))
	got := dataset.Map[int64, int64](context.Background(), d, Identity[int64]{})
	var last dataset.PartialResult[dataset.DataSet[int64]]
	if err := got.Run(context.Background(), func(pr dataset.PartialResult[dataset.DataSet[int64]]) error {
		last = pr
		return nil
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if last.Payload.Value() != 42 {
		t.Errorf("identity mapped value = %d, want 42", last.Payload.Value())
	}
}

func TestStringLengthMapsToByteLength(t *testing.T) {
	d := dataset.Local("hello")
	got := dataset.Map[string, int](context.Background(), d, StringLength{})
	var last dataset.PartialResult[dataset.DataSet[int]]
	if err := got.Run(context.Background(), func(pr dataset.PartialResult[dataset.DataSet[int]]) error {
		last = pr
		return nil
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if last.Payload.Value() != 5 {
		t.Errorf("length = %d, want 5", last.Payload.Value())
	}
}
