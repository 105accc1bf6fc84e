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
	"hillview.dev/dataset/coders"
	"hillview.dev/dataset/internal/opreg"
	"hillview.dev/dataset/internal/registry"
)

// encodeOpEnvelope packs an opreg.Wrap the same way dataset/remote.go's
// encodeOp does, so rpcserver.decodeOp can read it back regardless of
// which transport produced the Command.
func encodeOpEnvelope(w opreg.Wrap) []byte {
	enc := coders.NewEncoder()
	enc.String(w.TypeName)
	enc.Bytes(w.Config)
	return enc.Data()
}

func encodePeerWrap(peer registry.ID) opreg.Wrap {
	enc := coders.NewEncoder()
	enc.Float64(0)
	enc.Int64(peer.High)
	enc.Int64(peer.Low)
	return opreg.Wrap{TypeName: "zip-peer", Config: enc.Data()}
}

// decodeHandleResult mirrors dataset/remote.go's decodeHandleResult: a
// map/flatMap/zip PartialResponse's payload is (delta, highId, lowId).
func decodeHandleResult(b []byte) (delta float64, id registry.ID) {
	dec := coders.NewDecoder(b)
	delta = dec.Float64()
	id.High = dec.Int64()
	id.Low = dec.Int64()
	return delta, id
}

// decodeSketchResult splits a sketch PartialResponse's payload into its
// delta and the accumulator's still-encoded bytes. The accumulator's
// concrete type is only known to the client that registered the sketch,
// so the remaining bytes travel to the browser opaquely, same as the
// gRPC transport's serializedOp.
func decodeSketchResult(b []byte) (delta float64, payload []byte) {
	dec := coders.NewDecoder(b)
	delta = dec.Float64()
	return delta, dec.Rest()
}
