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

// Package obslog wires up the structured logging this module uses at every
// RPC and session boundary. It is a thin shell around log/slog: a Handler
// that always tags records with the session/call/object identifiers of the
// request currently being served, the way the teacher SDK's harness logging
// handler tags records with InstructionId/TransformId (see
// internal/harness/logger_test.go in the teacher tree).
package obslog

import (
	"context"
	"log/slog"

	"github.com/jba/slog/withsupport"
)

// Handler decorates an underlying slog.Handler with a fixed set of extra
// attributes, added to every record it emits. New Handlers are produced by
// calling With*: the base handler is never mutated.
type Handler struct {
	base  slog.Handler
	goa   *withsupport.GroupOrAttrs
}

var _ slog.Handler = (*Handler)(nil)

// New wraps base so records can be tagged with request-scoped attributes
// via WithSession/WithCall/WithObject.
func New(base slog.Handler) *Handler {
	return &Handler{base: base}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if h.goa != nil {
		r = h.goa.ApplyToRecord(r)
	}
	return h.base.Handle(ctx, r)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return &Handler{base: h.base, goa: h.goa.WithAttrs(attrs)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &Handler{base: h.base, goa: h.goa.WithGroup(name)}
}

// WithSession returns a logger tagged with a session identifier, for use
// across the lifetime of a single webrpc/rpcserver session.
func WithSession(l *slog.Logger, sessionID string) *slog.Logger {
	return l.With(slog.String("session_id", sessionID))
}

// WithCall returns a logger tagged with the RPC call id that scopes a
// single in-flight subscription, so unsubscribe/ack log lines can be
// correlated with the call they cancel.
func WithCall(l *slog.Logger, callID string) *slog.Logger {
	return l.With(slog.String("call_id", callID))
}

// WithObject returns a logger tagged with the dataset object id a request
// targets.
func WithObject(l *slog.Logger, highID, lowID int64) *slog.Logger {
	return l.With(slog.Int64("object_high", highID), slog.Int64("object_low", lowID))
}
