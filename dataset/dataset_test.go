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
	"testing"

	"github.com/google/go-cmp/cmp"

	"hillview.dev/dataset/internal/dserrors"
)

// sumSketch accumulates the total of every leaf it visits.
type sumSketch struct{}

func (sumSketch) Zero() int                { return 0 }
func (sumSketch) Create(t int) (int, error) { return t, nil }
func (sumSketch) Add(a, b int) (int, error) { return a + b, nil }

// timesN multiplies every leaf by N.
type timesN struct{ N int }

func (m timesN) Apply(t int) (int, error) { return t * m.N, nil }

// repeat duplicates each leaf into N copies, exercising FlatMap.
type repeat struct{ N int }

func (r repeat) Apply(t int) ([]int, error) {
	out := make([]int, r.N)
	for i := range out {
		out[i] = t
	}
	return out, nil
}

func collect[T any](t *testing.T, s interface {
	Run(ctx context.Context, emit func(T) error) error
}) []T {
	t.Helper()
	var got []T
	if err := s.Run(context.Background(), func(v T) error {
		got = append(got, v)
		return nil
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return got
}

// S1: Local(5).Sketch(sum) -> PR(0.0, 0) then PR(1.0, 5).
func TestScenarioS1LocalSketch(t *testing.T) {
	d := Local(5)
	got := collect[PartialResult[int]](t, Sketch[int, int](context.Background(), d, sumSketch{}))
	want := []PartialResult[int]{Result(0.0, 0), Result(1.0, 5)}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(PartialResult[int]{})); diff != "" {
		t.Errorf("Sketch(Local(5)) mismatch (-want +got):\n%s", diff)
	}
}

// S2: Parallel[Local(1),Local(2),Local(3)].Sketch(sum) ends at payload 6,
// and the emitted deltas sum to 1.0.
func TestScenarioS2ParallelSketch(t *testing.T) {
	d := Parallel(Local(1), Local(2), Local(3))
	got := collect[PartialResult[int]](t, Sketch[int, int](context.Background(), d, sumSketch{}))
	if len(got) == 0 {
		t.Fatal("expected at least one partial result")
	}
	last := got[len(got)-1]
	if last.Payload != 6 {
		t.Errorf("final payload = %d, want 6", last.Payload)
	}
	var total float64
	for _, pr := range got {
		total += pr.DeltaDone
	}
	if diff := total - 1.0; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("deltas summed to %v, want 1.0", total)
	}
}

// S3: Parallel[Local(1),Local(2)].Map(x*10) leaves contain [10, 20].
func TestScenarioS3ParallelMap(t *testing.T) {
	d := Parallel(Local(1), Local(2))
	got := collect[PartialResult[DataSet[int]]](t, Map[int, int](context.Background(), d, timesN{N: 10}))
	if len(got) == 0 {
		t.Fatal("expected at least one partial result")
	}
	final := got[len(got)-1].Payload
	if final.Kind() != KindParallel {
		t.Fatalf("final result kind = %s, want Parallel", final.Kind())
	}
	children := final.Children()
	if len(children) != 2 {
		t.Fatalf("got %d children, want 2", len(children))
	}
	if children[0].Value() != 10 || children[1].Value() != 20 {
		t.Errorf("children = [%d, %d], want [10, 20]", children[0].Value(), children[1].Value())
	}
}

// S4: Local(1).Zip(Local("a")) produces exactly one item.
func TestScenarioS4LocalZip(t *testing.T) {
	d := Local(1)
	other := Local("a")
	got := collect[PartialResult[DataSet[Pair[int, string]]]](t, Zip[int, string](context.Background(), d, other))
	if len(got) != 1 {
		t.Fatalf("got %d items, want 1", len(got))
	}
	pair := got[0].Payload.Value()
	if pair.First != 1 || pair.Second != "a" {
		t.Errorf("pair = %+v, want {1 a}", pair)
	}
}

// S5: Local(1).Zip(Parallel[Local("a")]) fails with TypeMismatch and emits
// no items.
func TestScenarioS5LocalZipShapeMismatch(t *testing.T) {
	d := Local(1)
	other := Parallel(Local("a"))
	var got []PartialResult[DataSet[Pair[int, string]]]
	err := Zip[int, string](context.Background(), d, other).Run(context.Background(), func(pr PartialResult[DataSet[Pair[int, string]]]) error {
		got = append(got, pr)
		return nil
	})
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if dserrors.CodeOf(err) != dserrors.CodeTypeMismatch {
		t.Errorf("error code = %v, want CodeTypeMismatch", dserrors.CodeOf(err))
	}
	if len(got) != 0 {
		t.Errorf("got %d items, want 0", len(got))
	}
}

// FlatMap flattens exactly one level: each child's Parallel result is
// spliced into a single Parallel of leaves, not nested (spec.md section 4.3).
func TestParallelFlatMapFlattensOneLevel(t *testing.T) {
	d := Parallel(Local(1), Local(2))
	got := collect[PartialResult[DataSet[int]]](t, FlatMap[int, int](context.Background(), d, repeat{N: 2}))
	final := got[len(got)-1].Payload
	if final.Kind() != KindParallel {
		t.Fatalf("final kind = %s, want Parallel", final.Kind())
	}
	children := final.Children()
	if len(children) != 4 {
		t.Fatalf("got %d children, want 4 (2 leaves x 2 repeats)", len(children))
	}
	for _, c := range children {
		if c.Kind() != KindLocal {
			t.Errorf("child kind = %s, want Local", c.Kind())
		}
	}
}

func TestDataSetValuePanicsOnWrongKind(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Value() on a Parallel dataset to panic")
		}
	}()
	Parallel(Local(1)).Value()
}

func TestDataSetStringRendersRecursively(t *testing.T) {
	d := Parallel(Local(1), Local(2))
	want := "Parallel[Local(1), Local(2)]"
	if got := d.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
