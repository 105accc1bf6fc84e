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

package webrpc

import (
	"context"

	"google.golang.org/grpc/metadata"

	"hillview.dev/dataset/internal/rpcwire"
)

// wsStream adapts one websocket request into an rpcwire.StreamServer, so
// the existing rpcserver.Server methods can drive it exactly as they
// drive a gRPC stream: the same dispatch logic serves both transports,
// only the framing on the way out differs.
type wsStream struct {
	ctx  context.Context
	send func(*rpcwire.PartialResponse) error
}

func (s *wsStream) Context() context.Context { return s.ctx }

func (s *wsStream) Send(m *rpcwire.PartialResponse) error { return s.send(m) }

func (s *wsStream) SendMsg(m any) error {
	if pr, ok := m.(*rpcwire.PartialResponse); ok {
		return s.send(pr)
	}
	return nil
}

func (s *wsStream) RecvMsg(m any) error { return nil }

func (s *wsStream) SetHeader(metadata.MD) error  { return nil }
func (s *wsStream) SendHeader(metadata.MD) error { return nil }
func (s *wsStream) SetTrailer(metadata.MD)       {}
