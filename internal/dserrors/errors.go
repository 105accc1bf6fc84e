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

// Package dserrors implements the error taxonomy of spec.md section 7 as
// typed errors inspectable with errors.As, independent of any transport.
package dserrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code identifies one of the error kinds named in the spec. It is carried
// across the RPC boundary as a small integer so a remote caller can branch
// on it without string matching.
type Code int32

const (
	// CodeUnknown is never produced deliberately; seeing it means a bug.
	CodeUnknown Code = iota
	CodeUserCodeFailure
	CodeTypeMismatch
	CodeShapeMismatch
	CodeObjectNotFound
	CodeSessionBusy
	CodeTransportError
	CodeCancelled
)

func (c Code) String() string {
	switch c {
	case CodeUserCodeFailure:
		return "UserCodeFailure"
	case CodeTypeMismatch:
		return "TypeMismatch"
	case CodeShapeMismatch:
		return "ShapeMismatch"
	case CodeObjectNotFound:
		return "ObjectNotFound"
	case CodeSessionBusy:
		return "SessionBusy"
	case CodeTransportError:
		return "TransportError"
	case CodeCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Error is the typed error value propagated for every taxonomy kind except
// Cancelled: a disposed or cancelled stream ends with the context's own
// error (context.Canceled, as stream.Subscription passes to onDone), not
// with an *Error.
type Error struct {
	Code    Code
	Message string
	// Stack is a debug-only trace string, populated via github.com/pkg/errors
	// so it survives marshaling across the RPC boundary for UI-facing
	// diagnostics (spec.md section 7: "a stable code, a human message, and
	// a debug stack trace string").
	Stack string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New builds an Error of the given kind, capturing a stack trace from the
// call site the way errors.WithStack does.
func New(code Code, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{
		Code:    code,
		Message: msg,
		Stack:   fmt.Sprintf("%+v", errors.New(msg)),
	}
}

// Wrap attaches a taxonomy code to an underlying error, preserving its
// message and recording a fresh stack trace at the wrap site.
func Wrap(code Code, err error) *Error {
	if err == nil {
		return nil
	}
	if de, ok := err.(*Error); ok {
		return de
	}
	return &Error{
		Code:    code,
		Message: err.Error(),
		Stack:   fmt.Sprintf("%+v", errors.WithStack(err)),
	}
}

// UserCodeFailure wraps an error raised by a Map_ or Sketch implementation.
// The producing dataset remains valid for retries, per spec.md section 7.
func UserCodeFailure(err error) *Error { return Wrap(CodeUserCodeFailure, err) }

// TypeMismatch reports a Local.Zip against an incompatible peer shape.
func TypeMismatch(format string, args ...any) *Error {
	return New(CodeTypeMismatch, format, args...)
}

// ShapeMismatch reports a Parallel.Zip against a peer with a different
// child count.
func ShapeMismatch(format string, args ...any) *Error {
	return New(CodeShapeMismatch, format, args...)
}

// ObjectNotFound reports an RPC referencing an unknown (highID, lowID).
func ObjectNotFound(highID, lowID int64) *Error {
	return New(CodeObjectNotFound, "no object registered for id %d:%d", highID, lowID)
}

// SessionBusy reports a second request on a session with an active
// subscription. The session itself is left intact.
func SessionBusy(session string) *Error {
	return New(CodeSessionBusy, "session %s already has an in-flight operation", session)
}

// TransportError reports RPC connection loss. Partial results already
// delivered before the loss remain valid.
func TransportError(err error) *Error {
	return Wrap(CodeTransportError, err)
}

// CodeOf extracts err's taxonomy Code via errors.As, returning CodeUnknown
// for an error that isn't one of ours.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeUnknown
}
