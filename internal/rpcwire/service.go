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

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name the DataSetService
// methods are registered under.
const ServiceName = "hillview.dataset.DataSetService"

// StreamServer is the per-call handle a server method uses to send
// PartialResponse items back to the caller.
type StreamServer interface {
	Send(*PartialResponse) error
	grpc.ServerStream
}

type streamServer struct {
	grpc.ServerStream
}

func (s *streamServer) Send(m *PartialResponse) error {
	return s.ServerStream.SendMsg(m)
}

// Server is implemented by the rpcserver package: one method per RPC of
// spec.md section 6, map/flatMap/sketch/zip/manage/prune as server
// streams and unsubscribe as a unary call.
type Server interface {
	Map(*Command, StreamServer) error
	FlatMap(*Command, StreamServer) error
	Sketch(*Command, StreamServer) error
	Zip(*Command, StreamServer) error
	Manage(*Command, StreamServer) error
	Prune(*Command, StreamServer) error
	Unsubscribe(context.Context, *Command) (*Ack, error)
}

func streamHandler(call func(Server, *Command, StreamServer) error) func(any, grpc.ServerStream) error {
	return func(srv any, stream grpc.ServerStream) error {
		cmd := new(Command)
		if err := stream.RecvMsg(cmd); err != nil {
			return err
		}
		return call(srv.(Server), cmd, &streamServer{stream})
	}
}

func unsubscribeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(Command)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).Unsubscribe(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Unsubscribe"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(Server).Unsubscribe(ctx, req.(*Command))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc is the hand-authored grpc.ServiceDesc for the
// DataSetService, playing the role a .proto-generated *_grpc.pb.go file
// would normally play.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Unsubscribe", Handler: unsubscribeHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Map", ServerStreams: true, Handler: streamHandler(func(s Server, c *Command, ss StreamServer) error { return s.Map(c, ss) })},
		{StreamName: "FlatMap", ServerStreams: true, Handler: streamHandler(func(s Server, c *Command, ss StreamServer) error { return s.FlatMap(c, ss) })},
		{StreamName: "Sketch", ServerStreams: true, Handler: streamHandler(func(s Server, c *Command, ss StreamServer) error { return s.Sketch(c, ss) })},
		{StreamName: "Zip", ServerStreams: true, Handler: streamHandler(func(s Server, c *Command, ss StreamServer) error { return s.Zip(c, ss) })},
		{StreamName: "Manage", ServerStreams: true, Handler: streamHandler(func(s Server, c *Command, ss StreamServer) error { return s.Manage(c, ss) })},
		{StreamName: "Prune", ServerStreams: true, Handler: streamHandler(func(s Server, c *Command, ss StreamServer) error { return s.Prune(c, ss) })},
	},
	Metadata: "hillview/dataset/dataset.proto",
}

// RegisterServer registers srv on gs, the way a generated
// RegisterDataSetServiceServer function would.
func RegisterServer(gs grpc.ServiceRegistrar, srv Server) {
	gs.RegisterService(&ServiceDesc, srv)
}
