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
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// fakeServer implements Server by echoing the Command it receives back as
// a single PartialResponse, so the test can check the envelope survives a
// real gRPC round trip rather than only a Marshal/Unmarshal pair.
type fakeServer struct {
	unsubscribed []*Command
}

func (f *fakeServer) echo(cmd *Command, ss StreamServer) error {
	return ss.Send(&PartialResponse{SerializedOp: cmd.SerializedOp})
}

func (f *fakeServer) Map(cmd *Command, ss StreamServer) error     { return f.echo(cmd, ss) }
func (f *fakeServer) FlatMap(cmd *Command, ss StreamServer) error { return f.echo(cmd, ss) }
func (f *fakeServer) Sketch(cmd *Command, ss StreamServer) error  { return f.echo(cmd, ss) }
func (f *fakeServer) Zip(cmd *Command, ss StreamServer) error     { return f.echo(cmd, ss) }
func (f *fakeServer) Manage(cmd *Command, ss StreamServer) error  { return f.echo(cmd, ss) }
func (f *fakeServer) Prune(cmd *Command, ss StreamServer) error   { return f.echo(cmd, ss) }

func (f *fakeServer) Unsubscribe(ctx context.Context, cmd *Command) (*Ack, error) {
	f.unsubscribed = append(f.unsubscribed, cmd)
	return &Ack{}, nil
}

func startTestServer(t *testing.T, srv Server) *grpc.ClientConn {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	gs := grpc.NewServer(grpc.ForceServerCodec(Codec{}))
	RegisterServer(gs, srv)
	go gs.Serve(lis)
	t.Cleanup(gs.Stop)

	cc, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { cc.Close() })
	return cc
}

func TestMapStreamRoundTripsOverGRPC(t *testing.T) {
	cc := startTestServer(t, &fakeServer{})
	sc, err := CallMap(context.Background(), cc, &Command{HighID: 1, LowID: 2, SerializedOp: []byte("hello")})
	if err != nil {
		t.Fatalf("CallMap: %v", err)
	}
	resp, err := sc.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if string(resp.SerializedOp) != "hello" {
		t.Errorf("SerializedOp = %q, want %q", resp.SerializedOp, "hello")
	}
	if _, err := sc.Recv(); !IsEOF(err) {
		t.Errorf("second Recv: %v, want io.EOF", err)
	}
}

func TestSketchStreamRoundTripsOverGRPC(t *testing.T) {
	cc := startTestServer(t, &fakeServer{})
	sc, err := CallSketch(context.Background(), cc, &Command{HighID: 3, LowID: 4, SerializedOp: []byte("sketch-payload")})
	if err != nil {
		t.Fatalf("CallSketch: %v", err)
	}
	resp, err := sc.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if string(resp.SerializedOp) != "sketch-payload" {
		t.Errorf("SerializedOp = %q, want %q", resp.SerializedOp, "sketch-payload")
	}
}

func TestUnsubscribeReachesServer(t *testing.T) {
	srv := &fakeServer{}
	cc := startTestServer(t, srv)
	ack, err := CallUnsubscribe(context.Background(), cc, &Command{HighID: 5, LowID: 6})
	if err != nil {
		t.Fatalf("CallUnsubscribe: %v", err)
	}
	if ack == nil {
		t.Fatal("expected a non-nil Ack")
	}
	if len(srv.unsubscribed) != 1 || srv.unsubscribed[0].HighID != 5 {
		t.Errorf("server recorded %+v, want one Command with HighID 5", srv.unsubscribed)
	}
}
