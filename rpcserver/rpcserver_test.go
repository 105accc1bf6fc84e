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

package rpcserver

import (
	"context"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc/metadata"

	"hillview.dev/dataset/dataset"
	"hillview.dev/dataset/coders"
	"hillview.dev/dataset/internal/opreg"
	"hillview.dev/dataset/internal/registry"
	"hillview.dev/dataset/internal/rpcwire"
	"hillview.dev/dataset/sketchkit"
)

// fakeStream is a minimal rpcwire.StreamServer good enough to drive a
// Server method directly, without a real gRPC connection.
type fakeStream struct {
	ctx context.Context
	mu  sync.Mutex
	got []*rpcwire.PartialResponse
}

func (s *fakeStream) Context() context.Context { return s.ctx }

func (s *fakeStream) Send(m *rpcwire.PartialResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, m)
	return nil
}

func (s *fakeStream) responses() []*rpcwire.PartialResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*rpcwire.PartialResponse(nil), s.got...)
}

func (s *fakeStream) SendMsg(m any) error          { return nil }
func (s *fakeStream) RecvMsg(m any) error          { return nil }
func (s *fakeStream) SetHeader(metadata.MD) error  { return nil }
func (s *fakeStream) SendHeader(metadata.MD) error { return nil }
func (s *fakeStream) SetTrailer(metadata.MD)       {}

func int64Bytes(v int64) []byte {
	enc := coders.NewEncoder()
	coders.MakeCoder[int64]().Encode(enc, v)
	return enc.Data()
}

func opCommand(id registry.ID, w opreg.Wrap) *rpcwire.Command {
	return &rpcwire.Command{HighID: id.High, LowID: id.Low, SerializedOp: encodeOpForTest(w)}
}

func encodeOpForTest(w opreg.Wrap) []byte {
	enc := coders.NewEncoder()
	enc.String(w.TypeName)
	enc.Bytes(w.Config)
	return enc.Data()
}

func newTestRPCServer() (*Server, *registry.ObjectManager) {
	objects := registry.NewObjectManager()
	return New(objects, nil), objects
}

func TestMapProducesFreshHandleWithIdentity(t *testing.T) {
	rpc, objects := newTestRPCServer()
	id := rpc.Insert(dataset.Local(int64Bytes(5)))

	w := opreg.Wrap{TypeName: opreg.TypeNameOf(sketchkit.Identity[int64]{}), Config: []byte("{}")}
	ss := &fakeStream{ctx: context.Background()}
	if err := rpc.Map(opCommand(id, w), ss); err != nil {
		t.Fatalf("Map: %v", err)
	}

	got := ss.responses()
	if len(got) == 0 {
		t.Fatal("expected at least one response")
	}
	delta, newID := decodeHandleResult(got[len(got)-1].SerializedOp)
	if delta != 1.0 {
		t.Errorf("final delta = %v, want 1.0", delta)
	}
	handle, err := objects.Lookup(newID)
	if err != nil {
		t.Fatalf("lookup new handle: %v", err)
	}
	leaf := handle.(dataset.DataSet[[]byte]).Value()
	if coders.MakeCoder[int64]().Decode(coders.NewDecoder(leaf)) != 5 {
		t.Errorf("mapped leaf did not round-trip through Identity")
	}
}

func TestSketchSumsAllLeaves(t *testing.T) {
	rpc, _ := newTestRPCServer()
	id := rpc.Insert(dataset.Parallel(
		dataset.Local(int64Bytes(1)),
		dataset.Local(int64Bytes(2)),
		dataset.Local(int64Bytes(3)),
	))

	w := opreg.Wrap{TypeName: opreg.TypeNameOf(sketchkit.Sum[int64]{}), Config: []byte("{}")}
	ss := &fakeStream{ctx: context.Background()}
	if err := rpc.Sketch(opCommand(id, w), ss); err != nil {
		t.Fatalf("Sketch: %v", err)
	}

	got := ss.responses()
	if len(got) == 0 {
		t.Fatal("expected at least one response")
	}
	_, payload := splitDelta(got[len(got)-1].SerializedOp)
	sum := coders.MakeCoder[int64]().Decode(coders.NewDecoder(payload))
	if sum != 6 {
		t.Errorf("final sum = %d, want 6", sum)
	}
}

func splitDelta(b []byte) (float64, []byte) {
	dec := coders.NewDecoder(b)
	return dec.Float64(), dec.Rest()
}

func TestZipFlattensPairLeavesIntoByteDataset(t *testing.T) {
	rpc, objects := newTestRPCServer()
	left := rpc.Insert(dataset.Local(int64Bytes(1)))
	right := rpc.Insert(dataset.Local(int64Bytes(2)))

	peer := opreg.Wrap{TypeName: "zip-peer", Config: encodeHandleResult(0, right)}
	cmd := &rpcwire.Command{HighID: left.High, LowID: left.Low, IdsIndex: 1, SerializedOp: encodeOpForTest(peer)}
	ss := &fakeStream{ctx: context.Background()}
	if err := rpc.Zip(cmd, ss); err != nil {
		t.Fatalf("Zip: %v", err)
	}

	got := ss.responses()
	if len(got) == 0 {
		t.Fatal("expected at least one response")
	}
	_, newID := decodeHandleResult(got[len(got)-1].SerializedOp)
	handle, err := objects.Lookup(newID)
	if err != nil {
		t.Fatalf("lookup zipped handle: %v", err)
	}
	leaf := handle.(dataset.DataSet[[]byte]).Value()
	first, second := decodeTestPair(leaf)
	if coders.MakeCoder[int64]().Decode(coders.NewDecoder(first)) != 1 {
		t.Errorf("first half did not round-trip")
	}
	if coders.MakeCoder[int64]().Decode(coders.NewDecoder(second)) != 2 {
		t.Errorf("second half did not round-trip")
	}
}

func decodeTestPair(b []byte) (first, second []byte) {
	dec := coders.NewDecoder(b)
	return dec.Bytes(), dec.Bytes()
}

func TestObjectNotFoundForUnknownHandle(t *testing.T) {
	rpc, _ := newTestRPCServer()
	unknown := registry.NewID()
	w := opreg.Wrap{TypeName: opreg.TypeNameOf(sketchkit.Sum[int64]{}), Config: []byte("{}")}
	ss := &fakeStream{ctx: context.Background()}
	err := rpc.Sketch(opCommand(unknown, w), ss)
	if err == nil {
		t.Fatal("expected an error for an unregistered object id")
	}
}

// slowSketch pauses in Create so a test can exercise cancellation mid-run.
type slowSketch struct{}

func (slowSketch) Zero() int64 { return 0 }
func (slowSketch) Create(t int64) (int64, error) {
	time.Sleep(50 * time.Millisecond)
	return t, nil
}
func (slowSketch) Add(a, b int64) (int64, error) { return a + b, nil }

func init() {
	dataset.RegisterSketch(func() dataset.Sketch_[int64, int64] { return &slowSketch{} })
}

// TestUnsubscribeCancelsInFlightSketch is the server-side half of a
// scenario S6-style check: an Unsubscribe call against an in-flight
// sketch's handle cancels it, and the subscription table returns to
// empty once the cancelled call unwinds.
func TestUnsubscribeCancelsInFlightSketch(t *testing.T) {
	rpc, _ := newTestRPCServer()
	leaves := make([]dataset.DataSet[[]byte], 20)
	for i := range leaves {
		leaves[i] = dataset.Local(int64Bytes(int64(i)))
	}
	id := rpc.Insert(dataset.Parallel(leaves...))

	w := opreg.Wrap{TypeName: opreg.TypeNameOf(slowSketch{}), Config: []byte("{}")}
	ss := &fakeStream{ctx: context.Background()}

	errCh := make(chan error, 1)
	go func() {
		errCh <- rpc.Sketch(opCommand(id, w), ss)
	}()

	time.Sleep(10 * time.Millisecond)
	if _, err := rpc.Unsubscribe(context.Background(), &rpcwire.Command{HighID: id.High, LowID: id.Low}); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("expected the cancelled sketch to return an error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sketch did not unwind after Unsubscribe")
	}

	key := subscriptionKey(id.High, id.Low)
	if sub := rpc.subs.GetSubscription(key); sub != nil {
		t.Errorf("subscription for %s still present after cancellation", key)
	}
}
