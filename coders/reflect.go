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

package coders

import (
	"fmt"
	"reflect"
)

// dynCoder encodes and decodes a reflect.Value of a fixed, pre-computed type.
// It is the untyped building block MakeCoder assembles into a typed Coder[T].
type dynCoder interface {
	encode(enc *Encoder, v reflect.Value)
	decode(dec *Decoder, v reflect.Value)
}

// MakeCoder builds a Coder[E] by reflecting over E's static type once, the
// same way the teacher SDK's internal/schema/schema.go builds a row coder
// from a Beam schema. The resulting Coder never reflects again at Encode/Decode
// time beyond the unavoidable reflect.Value plumbing for struct fields.
func MakeCoder[E any]() Coder[E] {
	var zero E
	rt := reflect.TypeOf(&zero).Elem()
	dc := coderForType(rt)
	return &reflectCoder[E]{dyn: dc}
}

type reflectCoder[E any] struct {
	dyn dynCoder
}

func (c *reflectCoder[E]) Encode(enc *Encoder, v E) {
	c.dyn.encode(enc, reflect.ValueOf(&v).Elem())
}

func (c *reflectCoder[E]) Decode(dec *Decoder) E {
	var out E
	c.dyn.decode(dec, reflect.ValueOf(&out).Elem())
	return out
}

func coderForType(rt reflect.Type) dynCoder {
	switch rt.Kind() {
	case reflect.Bool:
		return boolDyn{}
	case reflect.Int, reflect.Int64:
		return intDyn{bits: 64}
	case reflect.Int8:
		return intDyn{bits: 8}
	case reflect.Int16:
		return intDyn{bits: 16}
	case reflect.Int32:
		return intDyn{bits: 32}
	case reflect.Uint, reflect.Uint64:
		return uintDyn{bits: 64}
	case reflect.Uint8:
		return uintDyn{bits: 8}
	case reflect.Uint16:
		return uintDyn{bits: 16}
	case reflect.Uint32:
		return uintDyn{bits: 32}
	case reflect.Float32, reflect.Float64:
		return floatDyn{}
	case reflect.String:
		return stringDyn{}
	case reflect.Slice:
		if rt.Elem().Kind() == reflect.Uint8 {
			return bytesDyn{}
		}
		return sliceDyn{elem: coderForType(rt.Elem())}
	case reflect.Array:
		return arrayDyn{elem: coderForType(rt.Elem()), n: rt.Len()}
	case reflect.Map:
		return mapDyn{key: coderForType(rt.Key()), val: coderForType(rt.Elem())}
	case reflect.Struct:
		return buildRowDyn(rt)
	case reflect.Ptr:
		return ptrDyn{elem: coderForType(rt.Elem())}
	default:
		panic(fmt.Sprintf("coders: MakeCoder: unsupported kind %v for type %v", rt.Kind(), rt))
	}
}

type boolDyn struct{}

func (boolDyn) encode(enc *Encoder, v reflect.Value) { enc.Bool(v.Bool()) }
func (boolDyn) decode(dec *Decoder, v reflect.Value)  { v.SetBool(dec.Bool()) }

type intDyn struct{ bits int }

func (c intDyn) encode(enc *Encoder, v reflect.Value) { enc.Varint(zigzag(v.Int())) }
func (c intDyn) decode(dec *Decoder, v reflect.Value)  { v.SetInt(unzigzag(dec.Varint())) }

type uintDyn struct{ bits int }

func (c uintDyn) encode(enc *Encoder, v reflect.Value) { enc.Varint(v.Uint()) }
func (c uintDyn) decode(dec *Decoder, v reflect.Value)  { v.SetUint(dec.Varint()) }

type floatDyn struct{}

func (floatDyn) encode(enc *Encoder, v reflect.Value) { enc.Float64(v.Float()) }
func (floatDyn) decode(dec *Decoder, v reflect.Value)  { v.SetFloat(dec.Float64()) }

type stringDyn struct{}

func (stringDyn) encode(enc *Encoder, v reflect.Value) { enc.String(v.String()) }
func (stringDyn) decode(dec *Decoder, v reflect.Value)  { v.SetString(dec.String()) }

type bytesDyn struct{}

func (bytesDyn) encode(enc *Encoder, v reflect.Value) { enc.Bytes(v.Bytes()) }
func (bytesDyn) decode(dec *Decoder, v reflect.Value) {
	b := dec.Bytes()
	cp := make([]byte, len(b))
	copy(cp, b)
	v.SetBytes(cp)
}

type sliceDyn struct{ elem dynCoder }

func (c sliceDyn) encode(enc *Encoder, v reflect.Value) {
	n := v.Len()
	enc.Varint(uint64(n))
	for i := 0; i < n; i++ {
		c.elem.encode(enc, v.Index(i))
	}
}

func (c sliceDyn) decode(dec *Decoder, v reflect.Value) {
	n := int(dec.Varint())
	out := reflect.MakeSlice(v.Type(), n, n)
	for i := 0; i < n; i++ {
		c.elem.decode(dec, out.Index(i))
	}
	v.Set(out)
}

type arrayDyn struct {
	elem dynCoder
	n    int
}

func (c arrayDyn) encode(enc *Encoder, v reflect.Value) {
	for i := 0; i < c.n; i++ {
		c.elem.encode(enc, v.Index(i))
	}
}

func (c arrayDyn) decode(dec *Decoder, v reflect.Value) {
	for i := 0; i < c.n; i++ {
		c.elem.decode(dec, v.Index(i))
	}
}

type mapDyn struct{ key, val dynCoder }

func (c mapDyn) encode(enc *Encoder, v reflect.Value) {
	enc.Varint(uint64(v.Len()))
	iter := v.MapRange()
	for iter.Next() {
		c.key.encode(enc, iter.Key())
		c.val.encode(enc, iter.Value())
	}
}

func (c mapDyn) decode(dec *Decoder, v reflect.Value) {
	n := int(dec.Varint())
	out := reflect.MakeMapWithSize(v.Type(), n)
	kt, vt := v.Type().Key(), v.Type().Elem()
	for i := 0; i < n; i++ {
		kv := reflect.New(kt).Elem()
		vv := reflect.New(vt).Elem()
		c.key.decode(dec, kv)
		c.val.decode(dec, vv)
		out.SetMapIndex(kv, vv)
	}
	v.Set(out)
}

type ptrDyn struct{ elem dynCoder }

func (c ptrDyn) encode(enc *Encoder, v reflect.Value) {
	if v.IsNil() {
		enc.Bool(false)
		return
	}
	enc.Bool(true)
	c.elem.encode(enc, v.Elem())
}

func (c ptrDyn) decode(dec *Decoder, v reflect.Value) {
	if !dec.Bool() {
		return
	}
	v.Set(reflect.New(v.Type().Elem()))
	c.elem.decode(dec, v.Elem())
}

func zigzag(v int64) uint64   { return uint64((v << 1) ^ (v >> 63)) }
func unzigzag(v uint64) int64 { return int64(v>>1) ^ -int64(v&1) }
