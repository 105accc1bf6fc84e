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

// Package opreg lets a Map_/Sketch implementation cross the RPC boundary
// as a named, JSON-encoded payload instead of a closure, the way the
// teacher SDK's pardo.go wraps a DoFn value in a dofnWrap{TypeName, DoFn}
// envelope keyed by its reflect.Type package path before handing it to
// json.Marshal.
//
// This package cannot import the dataset package (dataset imports this
// one), so it does not know about dataset.Map_/dataset.Sketch directly.
// Instead it defines ByteMap/ByteSketch, the same interfaces with T and R
// both fixed to []byte; dataset.Map_[[]byte, []byte] and
// dataset.Sketch_[[]byte, []byte] satisfy them structurally, with no
// explicit conversion required. The rpcserver package runs every
// operation against byte payloads this way; the adapters that
// dataset.RegisterMap/RegisterSketch register decode and encode the real
// element type with a reflective coder inside the server.
package opreg

import (
	"reflect"

	"github.com/go-json-experiment/json"

	"hillview.dev/dataset/internal/dserrors"
)

// Wrap is the envelope carried across the wire for one operation value:
// its registered type name plus its JSON-encoded fields.
type Wrap struct {
	TypeName string
	Config   []byte
}

// ByteMap is the server-side shape of a Map_[T,S] with T = S = []byte.
type ByteMap interface {
	Apply(in []byte) ([]byte, error)
}

// ByteSketch is the server-side shape of a Sketch_[T,R] with T = R = []byte.
type ByteSketch interface {
	Zero() []byte
	Create(in []byte) ([]byte, error)
	Add(a, b []byte) ([]byte, error)
}

// ByteFlatMap is the server-side shape of a FlatMap_[T,S] with T = S =
// []byte: one input blob maps to a sequence of output blobs.
type ByteFlatMap interface {
	Apply(in []byte) ([][]byte, error)
}

// MapFactory builds a ByteMap from a Wrap's JSON config.
type MapFactory func(config []byte) (ByteMap, error)

// SketchFactory builds a ByteSketch from a Wrap's JSON config.
type SketchFactory func(config []byte) (ByteSketch, error)

// FlatMapFactory builds a ByteFlatMap from a Wrap's JSON config.
type FlatMapFactory func(config []byte) (ByteFlatMap, error)

var (
	types            = map[string]reflect.Type{}
	mapFactories     = map[string]MapFactory{}
	sketchFactories  = map[string]SketchFactory{}
	flatMapFactories = map[string]FlatMapFactory{}
)

// TypeNameOf returns the package-qualified name used to key v's type in
// the registry, dereferencing a pointer if v is one.
func TypeNameOf(v any) string {
	rt := reflect.TypeOf(v)
	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	return rt.PkgPath() + "." + rt.Name()
}

// RegisterMap records factory under name, so a Wrap naming it can be
// turned back into a runnable ByteMap. Call once per Map_ implementation,
// typically from an init() function (see sketchkit).
func RegisterMap(name string, factory MapFactory) {
	mapFactories[name] = factory
}

// RegisterSketch records factory under name, analogous to RegisterMap.
func RegisterSketch(name string, factory SketchFactory) {
	sketchFactories[name] = factory
}

// RegisterFlatMap records factory under name, analogous to RegisterMap.
func RegisterFlatMap(name string, factory FlatMapFactory) {
	flatMapFactories[name] = factory
}

// BuildMap reconstructs the ByteMap named by w.TypeName using the factory
// registered under that name.
func BuildMap(w Wrap) (ByteMap, error) {
	f, ok := mapFactories[w.TypeName]
	if !ok {
		return nil, dserrors.New(dserrors.CodeUserCodeFailure, "opreg: no Map_ registered under name %q", w.TypeName)
	}
	return f(w.Config)
}

// BuildSketch reconstructs the ByteSketch named by w.TypeName using the
// factory registered under that name.
func BuildSketch(w Wrap) (ByteSketch, error) {
	f, ok := sketchFactories[w.TypeName]
	if !ok {
		return nil, dserrors.New(dserrors.CodeUserCodeFailure, "opreg: no Sketch registered under name %q", w.TypeName)
	}
	return f(w.Config)
}

// BuildFlatMap reconstructs the ByteFlatMap named by w.TypeName using the
// factory registered under that name.
func BuildFlatMap(w Wrap) (ByteFlatMap, error) {
	f, ok := flatMapFactories[w.TypeName]
	if !ok {
		return nil, dserrors.New(dserrors.CodeUserCodeFailure, "opreg: no FlatMap_ registered under name %q", w.TypeName)
	}
	return f(w.Config)
}

// Marshal wraps op in a Wrap envelope naming its registered type, ready
// to cross the RPC boundary. op's JSON-visible fields become Config.
func Marshal[T any](op T) (Wrap, error) {
	name := TypeNameOf(op)
	cfg, err := json.Marshal(op, json.DefaultOptionsV2())
	if err != nil {
		return Wrap{}, dserrors.Wrap(dserrors.CodeUserCodeFailure, err)
	}
	return Wrap{TypeName: name, Config: cfg}, nil
}

// Register records T's concrete type under its package-qualified name, a
// prerequisite for Unmarshal to reconstruct values of non-operation types.
// The zip peer handle does not go through Register/Unmarshal: it travels
// as raw id bytes under the "zip-peer" name.
func Register[T any]() {
	var zero T
	rt := reflect.TypeOf(zero)
	if rt == nil {
		return
	}
	types[TypeNameOf(zero)] = rt
}

// Unmarshal reconstructs the value named in w.TypeName into a fresh value
// of Go type T, populated from w.Config. T must have been registered with
// Register.
func Unmarshal[T any](w Wrap) (T, error) {
	var zero T
	rt, ok := types[w.TypeName]
	if !ok {
		return zero, dserrors.TypeMismatch("opreg: no type registered under name %q", w.TypeName)
	}
	ptr := reflect.New(rt)
	if len(w.Config) > 0 {
		if err := json.Unmarshal(w.Config, ptr.Interface(), json.DefaultOptionsV2()); err != nil {
			return zero, dserrors.Wrap(dserrors.CodeUserCodeFailure, err)
		}
	}
	if typed, ok := ptr.Elem().Interface().(T); ok {
		return typed, nil
	}
	if typed, ok := ptr.Interface().(T); ok {
		return typed, nil
	}
	return zero, dserrors.TypeMismatch("opreg: decoded %q does not implement requested type", w.TypeName)
}
