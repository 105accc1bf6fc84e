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

// Package webrpc implements the client-facing WebSocket endpoint of
// spec.md section 4.6/6: a single-request/multi-reply session per
// connection, text frames in and out, at most one in-flight operation
// per session. It drives the same rpcserver.Server dispatch the gRPC
// transport uses, through the wsStream bridge, so the operation
// semantics live in exactly one place regardless of which transport a
// caller used to reach them.
package webrpc

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"hillview.dev/dataset/internal/dserrors"
	"hillview.dev/dataset/internal/obslog"
	"hillview.dev/dataset/internal/opreg"
	"hillview.dev/dataset/internal/registry"
	"hillview.dev/dataset/internal/rpcwire"
	"hillview.dev/dataset/rpcserver"
)

// Server serves the /rpc WebSocket endpoint against an rpcserver.Server's
// object table.
type Server struct {
	rpc      *rpcserver.Server
	sessions *registry.SessionManager
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// New returns a Server fronting rpc with a WebSocket transport.
func New(rpc *rpcserver.Server, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		rpc:      rpc,
		sessions: registry.NewSessionManager(),
		logger:   logger,
		upgrader: websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
	}
}

// ServeHTTP upgrades the connection and serves requests on it until the
// client disconnects, matching Hillview's RpcServer @ServerEndpoint("/rpc")
// lifecycle: zero or more replies per request, the server may close on
// completion or fatal error. Each request runs on its own goroutine so a
// streaming request never blocks the read loop; s.sessions still rejects
// a second concurrent map/flatMap/sketch/zip per session with
// SessionBusy, while unsubscribe always gets through.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sessionID := uuid.NewString()
	logger := obslog.WithSession(s.logger, sessionID)
	s.sessions.AddSession(sessionID)
	defer s.sessions.RemoveSession(sessionID)
	logger.InfoContext(r.Context(), "new websocket session")

	var writeMu sync.Mutex
	var wg sync.WaitGroup
	defer wg.Wait()

	nextRequestID := 0
	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.ErrorContext(r.Context(), "abnormal close", "error", err)
			} else {
				logger.InfoContext(r.Context(), "session closed")
			}
			return
		}
		nextRequestID++
		requestID := nextRequestID
		req := req
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleRequest(r.Context(), logger, sessionID, requestID, conn, &writeMu, &req)
		}()
	}
}

// handleRequest runs on its own goroutine per request so a long-running
// streaming op (map/flatMap/sketch/zip) never blocks ServeHTTP's read
// loop: a client must be able to send an unsubscribe frame over the same
// connection while an earlier request is still streaming. writeMu
// serializes the resulting concurrent writes, since a single
// *websocket.Conn only tolerates one writer at a time.
func (s *Server) handleRequest(ctx context.Context, logger *slog.Logger, sessionID string, requestID int, conn *websocket.Conn, writeMu *sync.Mutex, req *Request) {
	cmd, dispatch, err := s.buildCommand(req)
	if err != nil {
		s.sendReply(conn, writeMu, Reply{RequestID: requestID, Error: err.Error(), IsError: true, Done: true})
		return
	}

	if req.Method == "unsubscribe" {
		if _, err := s.rpc.Unsubscribe(ctx, cmd); err != nil {
			s.sendReply(conn, writeMu, Reply{RequestID: requestID, Error: err.Error(), IsError: true, Done: true})
			return
		}
		s.sendReply(conn, writeMu, Reply{RequestID: requestID, Done: true})
		return
	}

	callCtx, cancel := context.WithCancel(ctx)
	sub := &registry.Subscription{CallID: uuid.NewString(), Cancel: cancel}
	if err := s.sessions.Begin(sessionID, sub); err != nil {
		cancel()
		s.sendReply(conn, writeMu, Reply{RequestID: requestID, Error: err.Error(), IsError: true, Done: true})
		return
	}
	defer s.sessions.End(sessionID, sub.CallID)
	defer cancel()

	ss := &wsStream{ctx: callCtx, send: func(pr *rpcwire.PartialResponse) error {
		return s.sendReply(conn, writeMu, s.toReply(req.Method, requestID, pr))
	}}

	if err := dispatch(cmd, ss); err != nil {
		logger.ErrorContext(callCtx, "operation failed", "method", req.Method, "error", err)
		s.sendReply(conn, writeMu, Reply{RequestID: requestID, Error: err.Error(), IsError: true, Done: true})
		return
	}
	s.sendReply(conn, writeMu, Reply{RequestID: requestID, Done: true})
}

type streamDispatch func(*rpcwire.Command, rpcwire.StreamServer) error

// buildCommand translates a webrpc Request into the rpcwire.Command the
// shared rpcserver.Server dispatch methods expect, and picks out which
// method to call.
func (s *Server) buildCommand(req *Request) (*rpcwire.Command, streamDispatch, error) {
	id, err := registry.ParseID(req.ObjectID)
	if err != nil {
		return nil, nil, err
	}
	cmd := &rpcwire.Command{HighID: id.High, LowID: id.Low}

	switch req.Method {
	case "map":
		w, err := decodeOpArguments(req.Arguments)
		if err != nil {
			return nil, nil, err
		}
		cmd.SerializedOp = encodeOpEnvelope(w)
		return cmd, s.rpc.Map, nil
	case "flatMap":
		w, err := decodeOpArguments(req.Arguments)
		if err != nil {
			return nil, nil, err
		}
		cmd.SerializedOp = encodeOpEnvelope(w)
		return cmd, s.rpc.FlatMap, nil
	case "sketch":
		w, err := decodeOpArguments(req.Arguments)
		if err != nil {
			return nil, nil, err
		}
		cmd.SerializedOp = encodeOpEnvelope(w)
		return cmd, s.rpc.Sketch, nil
	case "zip":
		var args zipArguments
		if err := json.Unmarshal(req.Arguments, &args); err != nil {
			return nil, nil, dserrors.New(dserrors.CodeTypeMismatch, "zip: malformed arguments: %v", err)
		}
		peerID, err := registry.ParseID(args.PeerObjectID)
		if err != nil {
			return nil, nil, err
		}
		cmd.IdsIndex = 1
		cmd.SerializedOp = encodeOpEnvelope(encodePeerWrap(peerID))
		return cmd, s.rpc.Zip, nil
	case "manage":
		var args manageArguments
		if err := json.Unmarshal(req.Arguments, &args); err != nil {
			return nil, nil, dserrors.New(dserrors.CodeTypeMismatch, "manage: malformed arguments: %v", err)
		}
		cmd.SerializedOp = encodeOpEnvelope(opreg.Wrap{TypeName: args.Op})
		return cmd, s.rpc.Manage, nil
	case "prune":
		return cmd, s.rpc.Prune, nil
	case "unsubscribe":
		return cmd, nil, nil
	default:
		return nil, nil, dserrors.New(dserrors.CodeTypeMismatch, "unknown method %q", req.Method)
	}
}

func decodeOpArguments(raw json.RawMessage) (opreg.Wrap, error) {
	var args opArguments
	if err := json.Unmarshal(raw, &args); err != nil {
		return opreg.Wrap{}, dserrors.New(dserrors.CodeTypeMismatch, "malformed operation arguments: %v", err)
	}
	return opreg.Wrap{TypeName: args.Type, Config: []byte(args.Config)}, nil
}

// toReply renders one streamed PartialResponse as a JSON Reply, decoding
// its payload the way the issuing method encoded it.
func (s *Server) toReply(method string, requestID int, pr *rpcwire.PartialResponse) Reply {
	if method == "sketch" {
		delta, payload := decodeSketchResult(pr.SerializedOp)
		result, _ := json.Marshal(sketchResult{Delta: delta, Payload: payload})
		return Reply{RequestID: requestID, Result: result}
	}
	delta, id := decodeHandleResult(pr.SerializedOp)
	hr := handleResult{Delta: delta}
	if id != (registry.ID{}) {
		hr.ObjectID = id.String()
	}
	result, _ := json.Marshal(hr)
	return Reply{RequestID: requestID, Result: result}
}

func (s *Server) sendReply(conn *websocket.Conn, writeMu *sync.Mutex, reply Reply) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	return conn.WriteJSON(reply)
}
