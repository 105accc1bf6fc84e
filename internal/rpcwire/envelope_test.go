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

package rpcwire

import (
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func TestCommandRoundTrips(t *testing.T) {
	in := &Command{IdsIndex: 1, HighID: -42, LowID: 7, SerializedOp: []byte("payload")}
	var out Command
	if err := out.Unmarshal(in.Marshal()); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.IdsIndex != in.IdsIndex || out.HighID != in.HighID || out.LowID != in.LowID {
		t.Errorf("got %+v, want %+v", out, in)
	}
	if string(out.SerializedOp) != string(in.SerializedOp) {
		t.Errorf("SerializedOp = %q, want %q", out.SerializedOp, in.SerializedOp)
	}
}

func TestCommandRoundTripsEmptySerializedOp(t *testing.T) {
	in := &Command{HighID: 1, LowID: 2}
	var out Command
	if err := out.Unmarshal(in.Marshal()); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(out.SerializedOp) != 0 {
		t.Errorf("SerializedOp = %q, want empty", out.SerializedOp)
	}
}

func TestCommandUnmarshalSkipsUnknownFields(t *testing.T) {
	b := (&Command{HighID: 5}).Marshal()
	b = protowire.AppendTag(b, 99, protowire.VarintType)
	b = protowire.AppendVarint(b, 12345)

	var out Command
	if err := out.Unmarshal(b); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.HighID != 5 {
		t.Errorf("HighID = %d, want 5", out.HighID)
	}
}

func TestPartialResponseRoundTrips(t *testing.T) {
	in := &PartialResponse{SerializedOp: []byte{0x01, 0x02, 0x03}}
	var out PartialResponse
	if err := out.Unmarshal(in.Marshal()); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if string(out.SerializedOp) != string(in.SerializedOp) {
		t.Errorf("SerializedOp = %v, want %v", out.SerializedOp, in.SerializedOp)
	}
}

func TestAckMarshalsToEmptyBytes(t *testing.T) {
	var a Ack
	if b := a.Marshal(); len(b) != 0 {
		t.Errorf("Marshal = %v, want empty", b)
	}
	if err := a.Unmarshal([]byte{0xff, 0xff}); err != nil {
		t.Errorf("Unmarshal of garbage should be tolerated, got %v", err)
	}
}

func TestCodecRoundTripsCommand(t *testing.T) {
	var c Codec
	in := &Command{HighID: 1, LowID: 2, SerializedOp: []byte("op")}
	b, err := c.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	out := new(Command)
	if err := c.Unmarshal(b, out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.HighID != in.HighID || out.LowID != in.LowID {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

func TestCodecRejectsNonWireMessage(t *testing.T) {
	var c Codec
	if _, err := c.Marshal("not a wire message"); err == nil {
		t.Fatal("expected an error marshaling a non-wireMessage value")
	}
	if err := c.Unmarshal([]byte("x"), new(string)); err == nil {
		t.Fatal("expected an error unmarshaling into a non-wireMessage value")
	}
}
