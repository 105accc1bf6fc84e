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

import "encoding/json"

// Request is the text frame a browser client sends over /rpc (spec.md
// section 6): the object the call targets, the operation name, and its
// operation-specific arguments.
type Request struct {
	ObjectID  string          `json:"objectId"`
	Method    string          `json:"method"`
	Arguments json.RawMessage `json:"arguments"`
}

// Reply is the text frame the server sends back, zero or more times per
// Request, always ending with one Done == true frame.
type Reply struct {
	RequestID int             `json:"requestId"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	IsError   bool            `json:"isError"`
	Done      bool            `json:"done"`
}

// opArguments is the arguments shape for map/flatMap/sketch: the same
// {TypeName, Config} an opreg.Wrap carries, spelled out as JSON so a
// browser client can name a registered operation without speaking the
// binary coder envelope the gRPC transport uses.
type opArguments struct {
	Type   string          `json:"type"`
	Config json.RawMessage `json:"config"`
}

// zipArguments is Zip's argument shape: the peer handle to pair against,
// which must already live in this server's object table.
type zipArguments struct {
	PeerObjectID string `json:"peerObjectId"`
}

// manageArguments is Manage's argument shape: the management action.
type manageArguments struct {
	Op string `json:"op"`
}

// handleResult is the JSON shape of a map/flatMap/zip Reply.Result: the
// delta this item advances overall progress by, and the fresh handle it
// produced, if any (a progress-only item carries ObjectID == "").
type handleResult struct {
	Delta    float64 `json:"delta"`
	ObjectID string  `json:"objectId,omitempty"`
}

// sketchResult is the JSON shape of a sketch Reply.Result: the delta plus
// the accumulator's coder-encoded bytes, opaque to this layer exactly as
// spec.md section 6 describes serializedOp, carried as base64 since JSON
// has no native byte-string type.
type sketchResult struct {
	Delta   float64 `json:"delta"`
	Payload []byte  `json:"payload"`
}
