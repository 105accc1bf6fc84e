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

// Package rpcserver implements the gRPC-facing half of spec.md section
// 4.5: it looks up the object named by a Command, deserializes the
// operation it carries, drives the corresponding dataset operation, and
// streams PartialResponse items back until the operation completes,
// errors, or is cancelled via Unsubscribe.
//
// Every object this server manages is stored as a dataset.DataSet[[]byte]:
// the server never instantiates the caller's real element type T. Map_/
// Sketch_ implementations cross the boundary as opreg.ByteMap/ByteSketch
// (built by dataset.RegisterMap/RegisterSketch), which already speak
// []byte on both sides, so the object table stays uniform regardless of
// which concrete T a client happens to be using.
package rpcserver

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"hillview.dev/dataset/dataset"
	"hillview.dev/dataset/internal/dserrors"
	"hillview.dev/dataset/internal/obslog"
	"hillview.dev/dataset/internal/opreg"
	"hillview.dev/dataset/internal/registry"
	"hillview.dev/dataset/internal/rpcwire"
	"hillview.dev/dataset/stream"
)

// Server implements rpcwire.Server against an in-process object table.
type Server struct {
	objects *registry.ObjectManager
	subs    *registry.SessionManager
	logger  *slog.Logger
}

// New returns a Server backed by objects, logging through logger.
func New(objects *registry.ObjectManager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{objects: objects, subs: registry.NewSessionManager(), logger: logger}
}

// Insert registers handle (a dataset.DataSet[[]byte]) and returns its id,
// publishing a dataset that clients can then address by that id.
func (s *Server) Insert(handle dataset.DataSet[[]byte]) registry.ID {
	return s.objects.Insert(handle)
}

func subscriptionKey(highID, lowID int64) string {
	return fmt.Sprintf("%d:%d", highID, lowID)
}

func (s *Server) lookup(highID, lowID int64) (dataset.DataSet[[]byte], error) {
	h, err := s.objects.Lookup(registry.ID{High: highID, Low: lowID})
	if err != nil {
		return dataset.DataSet[[]byte]{}, err
	}
	ds, ok := h.(dataset.DataSet[[]byte])
	if !ok {
		return dataset.DataSet[[]byte]{}, dserrors.New(dserrors.CodeObjectNotFound, "object %d:%d is not a byte dataset", highID, lowID)
	}
	return ds, nil
}

// Map implements rpcwire.Server.
func (s *Server) Map(cmd *rpcwire.Command, ss rpcwire.StreamServer) error {
	return s.runHandleOp(cmd, ss, func(ctx context.Context, local dataset.DataSet[[]byte], w opreg.Wrap) (stream.Source[dataset.PartialResult[dataset.DataSet[[]byte]]], error) {
		bm, err := opreg.BuildMap(w)
		if err != nil {
			return nil, err
		}
		return dataset.Map[[]byte, []byte](ctx, local, bm), nil
	})
}

// FlatMap implements rpcwire.Server.
func (s *Server) FlatMap(cmd *rpcwire.Command, ss rpcwire.StreamServer) error {
	return s.runHandleOp(cmd, ss, func(ctx context.Context, local dataset.DataSet[[]byte], w opreg.Wrap) (stream.Source[dataset.PartialResult[dataset.DataSet[[]byte]]], error) {
		fm, err := opreg.BuildFlatMap(w)
		if err != nil {
			return nil, err
		}
		return dataset.FlatMap[[]byte, []byte](ctx, local, fm), nil
	})
}

// Zip implements rpcwire.Server. A zip Command carries its peer's object
// id encoded in SerializedOp (IdsIndex == 1) rather than a Map/Sketch
// operation; both handles must live on this same server.
func (s *Server) Zip(cmd *rpcwire.Command, ss rpcwire.StreamServer) error {
	return s.runHandleOp(cmd, ss, func(ctx context.Context, local dataset.DataSet[[]byte], w opreg.Wrap) (stream.Source[dataset.PartialResult[dataset.DataSet[[]byte]]], error) {
		if w.TypeName != "zip-peer" {
			return nil, dserrors.TypeMismatch("zip: expected a zip-peer payload, got %q", w.TypeName)
		}
		_, peerID := decodeHandleResult(w.Config)
		peer, err := s.lookup(peerID.High, peerID.Low)
		if err != nil {
			return nil, err
		}
		zipped := dataset.Zip[[]byte, []byte](ctx, local, peer)
		return stream.Map(zipped, func(pr dataset.PartialResult[dataset.DataSet[dataset.Pair[[]byte, []byte]]]) dataset.PartialResult[dataset.DataSet[[]byte]] {
			if !pr.HasPayload() {
				return dataset.ProgressOnly[dataset.DataSet[[]byte]](pr.DeltaDone)
			}
			return dataset.Result(pr.DeltaDone, flattenPairDataset(pr.Payload))
		}), nil
	})
}

// Sketch implements rpcwire.Server.
func (s *Server) Sketch(cmd *rpcwire.Command, ss rpcwire.StreamServer) error {
	return s.runSketchOp(cmd, ss, func(ctx context.Context, local dataset.DataSet[[]byte], w opreg.Wrap) (stream.Source[dataset.PartialResult[[]byte]], error) {
		bsk, err := opreg.BuildSketch(w)
		if err != nil {
			return nil, err
		}
		return dataset.Sketch[[]byte, []byte](ctx, local, bsk), nil
	})
}

// Manage implements rpcwire.Server. It is a small administrative RPC for
// refcount bookkeeping (retain/release by name) rather than a dataset
// operation, since spec.md section 4.5 names "manage" alongside the four
// operations without describing a payload of its own.
func (s *Server) Manage(cmd *rpcwire.Command, ss rpcwire.StreamServer) error {
	id := registry.ID{High: cmd.HighID, Low: cmd.LowID}
	w, err := decodeOp(cmd.SerializedOp)
	if err != nil {
		return grpcStatus(err)
	}
	switch w.TypeName {
	case "retain":
		s.objects.Retain(id)
	case "release":
		s.objects.Release(id)
	default:
		return grpcStatus(dserrors.New(dserrors.CodeUserCodeFailure, "manage: unknown management op %q", w.TypeName))
	}
	return ss.Send(&rpcwire.PartialResponse{SerializedOp: encodeHandleResult(1.0, id)})
}

// Prune implements rpcwire.Server: it decrements the target handle's
// reference count, releasing it once no references remain (spec.md
// section 4.4: "pruning ... decrement server-side refcounts").
func (s *Server) Prune(cmd *rpcwire.Command, ss rpcwire.StreamServer) error {
	id := registry.ID{High: cmd.HighID, Low: cmd.LowID}
	s.objects.Release(id)
	return ss.Send(&rpcwire.PartialResponse{SerializedOp: encodeHandleResult(1.0, id)})
}

// Unsubscribe implements rpcwire.Server: it cancels the subscription
// registered under the target handle's id, if one is active.
func (s *Server) Unsubscribe(ctx context.Context, cmd *rpcwire.Command) (*rpcwire.Ack, error) {
	key := subscriptionKey(cmd.HighID, cmd.LowID)
	if sub := s.subs.GetSubscription(key); sub != nil {
		sub.Cancel()
		s.subs.Forget(key, sub.CallID)
	}
	return &rpcwire.Ack{}, nil
}

// runHandleOp drives build against the target handle and streams each
// emitted PartialResult[DataSet[[]byte]] back as a freshly registered
// object id, per spec.md section 4.4's "the returned handle ... is a
// fresh RemoteDataSet whose object-id is encoded in the payload".
func (s *Server) runHandleOp(cmd *rpcwire.Command, ss rpcwire.StreamServer, build func(ctx context.Context, local dataset.DataSet[[]byte], w opreg.Wrap) (stream.Source[dataset.PartialResult[dataset.DataSet[[]byte]]], error)) error {
	local, err := s.lookup(cmd.HighID, cmd.LowID)
	if err != nil {
		return grpcStatus(err)
	}
	w, err := decodeOp(cmd.SerializedOp)
	if err != nil {
		return grpcStatus(err)
	}
	src, err := build(ss.Context(), local, w)
	if err != nil {
		return grpcStatus(err)
	}
	ctx, cancel := context.WithCancel(ss.Context())
	key := subscriptionKey(cmd.HighID, cmd.LowID)
	callID := registry.NewID().String()
	s.subs.AddSession(key)
	if err := s.subs.Begin(key, &registry.Subscription{CallID: callID, Cancel: cancel}); err != nil {
		cancel()
		return grpcStatus(err)
	}
	defer s.subs.Forget(key, callID)
	defer cancel()

	logger := obslog.WithCall(s.logger, callID)
	err = src.Run(ctx, func(pr dataset.PartialResult[dataset.DataSet[[]byte]]) error {
		if !pr.HasPayload() {
			return ss.Send(&rpcwire.PartialResponse{SerializedOp: encodeHandleResult(pr.DeltaDone, registry.ID{})})
		}
		newID := s.objects.Insert(pr.Payload)
		return ss.Send(&rpcwire.PartialResponse{SerializedOp: encodeHandleResult(pr.DeltaDone, newID)})
	})
	if err != nil {
		logger.ErrorContext(ctx, "operation failed", "error", err)
		return grpcStatus(err)
	}
	return nil
}

func (s *Server) runSketchOp(cmd *rpcwire.Command, ss rpcwire.StreamServer, build func(ctx context.Context, local dataset.DataSet[[]byte], w opreg.Wrap) (stream.Source[dataset.PartialResult[[]byte]], error)) error {
	local, err := s.lookup(cmd.HighID, cmd.LowID)
	if err != nil {
		return grpcStatus(err)
	}
	w, err := decodeOp(cmd.SerializedOp)
	if err != nil {
		return grpcStatus(err)
	}
	src, err := build(ss.Context(), local, w)
	if err != nil {
		return grpcStatus(err)
	}
	ctx, cancel := context.WithCancel(ss.Context())
	key := subscriptionKey(cmd.HighID, cmd.LowID)
	callID := registry.NewID().String()
	s.subs.AddSession(key)
	if err := s.subs.Begin(key, &registry.Subscription{CallID: callID, Cancel: cancel}); err != nil {
		cancel()
		return grpcStatus(err)
	}
	defer s.subs.Forget(key, callID)
	defer cancel()

	err = src.Run(ctx, func(pr dataset.PartialResult[[]byte]) error {
		payload := pr.Payload
		return ss.Send(&rpcwire.PartialResponse{SerializedOp: encodeSketchResult(pr.DeltaDone, payload)})
	})
	if err != nil {
		return grpcStatus(err)
	}
	return nil
}

// grpcStatus translates err's taxonomy code into a gRPC status error, the
// boundary spec.md section 7 describes as "translated into wire-level
// error codes".
func grpcStatus(err error) error {
	if err == nil {
		return nil
	}
	code := dserrors.CodeOf(err)
	var gc codes.Code
	switch code {
	case dserrors.CodeObjectNotFound:
		gc = codes.NotFound
	case dserrors.CodeSessionBusy:
		gc = codes.FailedPrecondition
	case dserrors.CodeTypeMismatch, dserrors.CodeShapeMismatch:
		gc = codes.InvalidArgument
	case dserrors.CodeTransportError:
		gc = codes.Unavailable
	case dserrors.CodeCancelled:
		gc = codes.Canceled
	case dserrors.CodeUserCodeFailure:
		gc = codes.Internal
	default:
		gc = codes.Unknown
	}
	return status.Error(gc, err.Error())
}
