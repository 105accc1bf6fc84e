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
	"context"
	"io"

	"google.golang.org/grpc"
)

// StreamClient is the caller-side handle for one of the six server
// streaming RPCs: Map, FlatMap, Sketch, Zip, Manage, Prune.
type StreamClient struct {
	grpc.ClientStream
}

// Recv reads the next PartialResponse, returning io.EOF once the server
// has closed the stream cleanly.
func (c *StreamClient) Recv() (*PartialResponse, error) {
	m := new(PartialResponse)
	if err := c.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func callStream(ctx context.Context, cc grpc.ClientConnInterface, method string, in *Command) (*StreamClient, error) {
	desc := &grpc.StreamDesc{StreamName: method, ServerStreams: true}
	s, err := cc.NewStream(ctx, desc, "/"+ServiceName+"/"+method, grpc.ForceCodec(Codec{}))
	if err != nil {
		return nil, err
	}
	if err := s.SendMsg(in); err != nil {
		return nil, err
	}
	if err := s.CloseSend(); err != nil {
		return nil, err
	}
	return &StreamClient{s}, nil
}

// CallMap issues the Map RPC.
func CallMap(ctx context.Context, cc grpc.ClientConnInterface, in *Command) (*StreamClient, error) {
	return callStream(ctx, cc, "Map", in)
}

// CallFlatMap issues the FlatMap RPC.
func CallFlatMap(ctx context.Context, cc grpc.ClientConnInterface, in *Command) (*StreamClient, error) {
	return callStream(ctx, cc, "FlatMap", in)
}

// CallSketch issues the Sketch RPC.
func CallSketch(ctx context.Context, cc grpc.ClientConnInterface, in *Command) (*StreamClient, error) {
	return callStream(ctx, cc, "Sketch", in)
}

// CallZip issues the Zip RPC.
func CallZip(ctx context.Context, cc grpc.ClientConnInterface, in *Command) (*StreamClient, error) {
	return callStream(ctx, cc, "Zip", in)
}

// CallManage issues the Manage RPC.
func CallManage(ctx context.Context, cc grpc.ClientConnInterface, in *Command) (*StreamClient, error) {
	return callStream(ctx, cc, "Manage", in)
}

// CallPrune issues the Prune RPC.
func CallPrune(ctx context.Context, cc grpc.ClientConnInterface, in *Command) (*StreamClient, error) {
	return callStream(ctx, cc, "Prune", in)
}

// CallUnsubscribe issues the unary Unsubscribe RPC.
func CallUnsubscribe(ctx context.Context, cc grpc.ClientConnInterface, in *Command) (*Ack, error) {
	out := new(Ack)
	err := cc.Invoke(ctx, "/"+ServiceName+"/Unsubscribe", in, out, grpc.ForceCodec(Codec{}))
	return out, err
}

// IsEOF reports whether err is the clean end-of-stream sentinel.
func IsEOF(err error) bool { return err == io.EOF }
