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

package dataset

import (
	"github.com/go-json-experiment/json"

	"hillview.dev/dataset/coders"
	"hillview.dev/dataset/internal/dserrors"
	"hillview.dev/dataset/internal/opreg"
)

// byteMapAdapter lets a Map_[T, S] run against the raw, coder-encoded
// payloads a remote session manages: Apply decodes its []byte argument
// with T's reflective coder, invokes the wrapped operation, and encodes
// the result with S's reflective coder. This is exactly the shape
// opreg.ByteMap expects, so rpcserver can hand an adapter anywhere a
// dataset.Map_[[]byte, []byte] is required.
type byteMapAdapter[T, S any] struct {
	m Map_[T, S]
}

func (a byteMapAdapter[T, S]) Apply(in []byte) ([]byte, error) {
	t := coders.MakeCoder[T]().Decode(coders.NewDecoder(in))
	s, err := a.m.Apply(t)
	if err != nil {
		return nil, err
	}
	enc := coders.NewEncoder()
	coders.MakeCoder[S]().Encode(enc, s)
	return enc.Data(), nil
}

type byteFlatMapAdapter[T, S any] struct {
	m FlatMap_[T, S]
}

func (a byteFlatMapAdapter[T, S]) Apply(in []byte) ([][]byte, error) {
	t := coders.MakeCoder[T]().Decode(coders.NewDecoder(in))
	items, err := a.m.Apply(t)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(items))
	for i, s := range items {
		enc := coders.NewEncoder()
		coders.MakeCoder[S]().Encode(enc, s)
		out[i] = enc.Data()
	}
	return out, nil
}

type byteSketchAdapter[T, R any] struct {
	sk Sketch_[T, R]
}

func (a byteSketchAdapter[T, R]) Zero() []byte {
	enc := coders.NewEncoder()
	coders.MakeCoder[R]().Encode(enc, a.sk.Zero())
	return enc.Data()
}

func (a byteSketchAdapter[T, R]) Create(in []byte) ([]byte, error) {
	t := coders.MakeCoder[T]().Decode(coders.NewDecoder(in))
	r, err := a.sk.Create(t)
	if err != nil {
		return nil, err
	}
	enc := coders.NewEncoder()
	coders.MakeCoder[R]().Encode(enc, r)
	return enc.Data(), nil
}

func (a byteSketchAdapter[T, R]) Add(x, y []byte) ([]byte, error) {
	rx := coders.MakeCoder[R]().Decode(coders.NewDecoder(x))
	ry := coders.MakeCoder[R]().Decode(coders.NewDecoder(y))
	r, err := a.sk.Add(rx, ry)
	if err != nil {
		return nil, err
	}
	enc := coders.NewEncoder()
	coders.MakeCoder[R]().Encode(enc, r)
	return enc.Data(), nil
}

// RegisterMap makes newOp's Map_ implementation callable from across the
// RPC boundary: rpcserver will reconstruct one per incoming Command whose
// operation names it, decode the leaf with T's coder, apply it, and
// encode the result with S's coder. newOp must return a pointer-backed
// Map_ so its exported fields can be populated by JSON decoding.
func RegisterMap[T, S any](newOp func() Map_[T, S]) {
	name := opreg.TypeNameOf(newOp())
	opreg.RegisterMap(name, func(config []byte) (opreg.ByteMap, error) {
		op := newOp()
		if len(config) > 0 {
			if err := json.Unmarshal(config, op, json.DefaultOptionsV2()); err != nil {
				return nil, dserrors.Wrap(dserrors.CodeUserCodeFailure, err)
			}
		}
		return byteMapAdapter[T, S]{m: op}, nil
	})
}

// RegisterFlatMap is RegisterMap's counterpart for FlatMap_ implementations.
func RegisterFlatMap[T, S any](newOp func() FlatMap_[T, S]) {
	name := opreg.TypeNameOf(newOp())
	opreg.RegisterFlatMap(name, func(config []byte) (opreg.ByteFlatMap, error) {
		op := newOp()
		if len(config) > 0 {
			if err := json.Unmarshal(config, op, json.DefaultOptionsV2()); err != nil {
				return nil, dserrors.Wrap(dserrors.CodeUserCodeFailure, err)
			}
		}
		return byteFlatMapAdapter[T, S]{m: op}, nil
	})
}

// RegisterSketch is RegisterMap's counterpart for Sketch_ implementations.
func RegisterSketch[T, R any](newOp func() Sketch_[T, R]) {
	name := opreg.TypeNameOf(newOp())
	opreg.RegisterSketch(name, func(config []byte) (opreg.ByteSketch, error) {
		op := newOp()
		if len(config) > 0 {
			if err := json.Unmarshal(config, op, json.DefaultOptionsV2()); err != nil {
				return nil, dserrors.Wrap(dserrors.CodeUserCodeFailure, err)
			}
		}
		return byteSketchAdapter[T, R]{sk: op}, nil
	})
}
