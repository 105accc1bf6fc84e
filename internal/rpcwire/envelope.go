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

// Package rpcwire implements the transport-level envelope of spec.md
// section 6: Command, PartialResponse, and Ack, plus the grpc.ServiceDesc
// for the seven-method DataSetService they travel over. The envelope's
// payload (serializedOp) is opaque here; its schema belongs to the
// dataset package's operations, encoded via internal/opreg and
// coders. This package only knows how to get bytes across gRPC.
package rpcwire

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Command is the request message for every RPC method: the streaming
// map, flatMap, sketch, zip, manage and prune, and the unary unsubscribe.
type Command struct {
	IdsIndex     int32
	HighID       int64
	LowID        int64
	SerializedOp []byte
}

const (
	fieldCommandIdsIndex     = 1
	fieldCommandHighID       = 2
	fieldCommandLowID        = 3
	fieldCommandSerializedOp = 4
)

// Marshal encodes c using the same varint/length-delimited wire primitives
// protoc-generated code would, without requiring a .proto file: each field
// is a plain protowire tag+value pair, kept in ascending field number
// order.
func (c *Command) Marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldCommandIdsIndex, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(int64(c.IdsIndex)))
	b = protowire.AppendTag(b, fieldCommandHighID, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(c.HighID))
	b = protowire.AppendTag(b, fieldCommandLowID, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(c.LowID))
	b = protowire.AppendTag(b, fieldCommandSerializedOp, protowire.BytesType)
	b = protowire.AppendBytes(b, c.SerializedOp)
	return b
}

// Unmarshal decodes b produced by Marshal into c.
func (c *Command) Unmarshal(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case fieldCommandIdsIndex:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			c.IdsIndex = int32(v)
			b = b[n:]
		case fieldCommandHighID:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			c.HighID = int64(v)
			b = b[n:]
		case fieldCommandLowID:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			c.LowID = int64(v)
			b = b[n:]
		case fieldCommandSerializedOp:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			c.SerializedOp = append([]byte(nil), v...)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return nil
}

// PartialResponse is the streamed reply message: one per item in a
// dataset operation's partial result stream.
type PartialResponse struct {
	SerializedOp []byte
}

const fieldPartialResponseSerializedOp = 1

// Marshal encodes r.
func (r *PartialResponse) Marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldPartialResponseSerializedOp, protowire.BytesType)
	b = protowire.AppendBytes(b, r.SerializedOp)
	return b
}

// Unmarshal decodes b produced by Marshal into r.
func (r *PartialResponse) Unmarshal(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case fieldPartialResponseSerializedOp:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			r.SerializedOp = append([]byte(nil), v...)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return nil
}

// Ack is the unary response to unsubscribe. It carries no fields; its
// wire form is always empty, matching the Empty-like shape spec.md
// section 6 names.
type Ack struct{}

// Marshal encodes a, always the empty byte slice.
func (a *Ack) Marshal() []byte { return nil }

// Unmarshal decodes b into a. Any bytes are ignored, matching proto3's
// forward-compatible unknown-field tolerance.
func (a *Ack) Unmarshal(b []byte) error { return nil }
