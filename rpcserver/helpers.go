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

package rpcserver

import (
	"hillview.dev/dataset/dataset"
	"hillview.dev/dataset/coders"
	"hillview.dev/dataset/internal/opreg"
	"hillview.dev/dataset/internal/registry"
)

func decodeOp(b []byte) (opreg.Wrap, error) {
	dec := coders.NewDecoder(b)
	name := dec.String()
	cfg := dec.Bytes()
	return opreg.Wrap{TypeName: name, Config: append([]byte(nil), cfg...)}, nil
}

func encodeHandleResult(delta float64, id registry.ID) []byte {
	enc := coders.NewEncoder()
	enc.Float64(delta)
	enc.Int64(id.High)
	enc.Int64(id.Low)
	return enc.Data()
}

func decodeHandleResult(b []byte) (delta float64, id registry.ID) {
	dec := coders.NewDecoder(b)
	delta = dec.Float64()
	id.High = dec.Int64()
	id.Low = dec.Int64()
	return delta, id
}

// encodeSketchResult writes delta followed by payload's raw bytes, not
// length-prefixed: payload already came out of a Sketch_'s R-typed
// reflective coder (via byteSketchAdapter), which is self-delimiting the
// same way the client's decodeSketchResult reads it back, so a varint
// length prefix here would double-encode the length.
func encodeSketchResult(delta float64, payload []byte) []byte {
	enc := coders.NewEncoder()
	enc.Float64(delta)
	return append(enc.Data(), payload...)
}

// flattenPairDataset collapses a DataSet[Pair[[]byte, []byte]] produced by
// a Zip call into a DataSet[[]byte], encoding each leaf pair as one
// length-prefixed blob, so the object table can go on storing every
// handle uniformly as DataSet[[]byte] regardless of which operation
// produced it.
func flattenPairDataset(d dataset.DataSet[dataset.Pair[[]byte, []byte]]) dataset.DataSet[[]byte] {
	switch d.Kind() {
	case dataset.KindLocal:
		p := d.Value()
		enc := coders.NewEncoder()
		enc.Bytes(p.First)
		enc.Bytes(p.Second)
		return dataset.Local(enc.Data())
	case dataset.KindParallel:
		children := d.Children()
		out := make([]dataset.DataSet[[]byte], len(children))
		for i, c := range children {
			out[i] = flattenPairDataset(c)
		}
		return dataset.Parallel(out...)
	default:
		// A Zip performed entirely within one server never produces a
		// Remote result; this case is unreachable in practice.
		return dataset.Local[[]byte](nil)
	}
}
