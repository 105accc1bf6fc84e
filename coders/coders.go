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

// Package coders implements the byte-level encode/decode primitives used to
// move dataset leaf values, sketch payloads, and operation configuration
// across the RPC boundary. It does not know about gRPC, sessions, or
// datasets; it only knows how to turn a Go value into bytes and back.
package coders

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Encoder accumulates an opaque byte-level envelope. Values are appended in
// the order the caller writes them; the matching Decoder must read them back
// in the same order.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty Encoder ready to accept writes.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Data returns the bytes accumulated so far. The returned slice aliases the
// Encoder's internal buffer and must not be retained across further writes.
func (e *Encoder) Data() []byte {
	return e.buf
}

// Byte appends a single byte.
func (e *Encoder) Byte(b byte) {
	e.buf = append(e.buf, b)
}

// Varint appends v as an unsigned LEB128 varint.
func (e *Encoder) Varint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	e.buf = append(e.buf, tmp[:n]...)
}

// Bytes appends b as a varint length prefix followed by the raw bytes.
func (e *Encoder) Bytes(b []byte) {
	e.Varint(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

// String appends s the same way as Bytes.
func (e *Encoder) String(s string) {
	e.Bytes([]byte(s))
}

// Int32 appends v as a fixed 4 byte big endian integer.
func (e *Encoder) Int32(v int32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(v))
	e.buf = append(e.buf, tmp[:]...)
}

// Int64 appends v as a fixed 8 byte big endian integer.
func (e *Encoder) Int64(v int64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(v))
	e.buf = append(e.buf, tmp[:]...)
}

// Float64 appends v as its IEEE 754 bit pattern, big endian.
func (e *Encoder) Float64(v float64) {
	e.Int64(int64(math.Float64bits(v)))
}

// Bool appends v as a single 0x00/0x01 byte.
func (e *Encoder) Bool(v bool) {
	if v {
		e.Byte(1)
	} else {
		e.Byte(0)
	}
}

// Decoder reads values out of an Encoder-produced envelope, in the order
// they were written.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder wraps data for sequential reads. data is not copied.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{buf: data}
}

// Remaining reports how many bytes are left unread.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

func (d *Decoder) need(n int) {
	if d.Remaining() < n {
		panic(fmt.Sprintf("coders: decode past end of buffer: need %d, have %d", n, d.Remaining()))
	}
}

// Byte reads a single byte.
func (d *Decoder) Byte() byte {
	d.need(1)
	b := d.buf[d.pos]
	d.pos++
	return b
}

// Varint reads an unsigned LEB128 varint.
func (d *Decoder) Varint() uint64 {
	v, n := binary.Uvarint(d.buf[d.pos:])
	if n <= 0 {
		panic("coders: malformed varint")
	}
	d.pos += n
	return v
}

// Bytes reads a varint length prefix followed by that many raw bytes.
func (d *Decoder) Bytes() []byte {
	n := int(d.Varint())
	d.need(n)
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b
}

// String reads the same encoding as Bytes.
func (d *Decoder) String() string {
	return string(d.Bytes())
}

// Int32 reads a fixed 4 byte big endian integer.
func (d *Decoder) Int32() int32 {
	d.need(4)
	v := binary.BigEndian.Uint32(d.buf[d.pos:])
	d.pos += 4
	return int32(v)
}

// Int64 reads a fixed 8 byte big endian integer.
func (d *Decoder) Int64() int64 {
	d.need(8)
	v := binary.BigEndian.Uint64(d.buf[d.pos:])
	d.pos += 8
	return int64(v)
}

// Float64 reads an IEEE 754 bit pattern written by Encoder.Float64.
func (d *Decoder) Float64() float64 {
	return math.Float64frombits(uint64(d.Int64()))
}

// Bool reads a single 0x00/0x01 byte.
func (d *Decoder) Bool() bool {
	return d.Byte() != 0
}

// Rest returns the unread tail of the buffer, for envelopes whose final
// field is an opaque, self-delimiting blob with no length prefix of its
// own (e.g. a sketch accumulator whose concrete type only the caller
// that registered it knows).
func (d *Decoder) Rest() []byte {
	b := d.buf[d.pos:]
	d.pos = len(d.buf)
	return b
}

// Coder is implemented by types that know how to serialize a value of type E
// across the wire. Coders are stateless and safe for concurrent use.
type Coder[E any] interface {
	Encode(*Encoder, E)
	Decode(*Decoder) E
}

// Func adapts a pair of encode/decode closures into a Coder.
type Func[E any] struct {
	EncodeFn func(*Encoder, E)
	DecodeFn func(*Decoder) E
}

func (c Func[E]) Encode(enc *Encoder, v E) { c.EncodeFn(enc, v) }
func (c Func[E]) Decode(dec *Decoder) E    { return c.DecodeFn(dec) }

// Encode is a convenience that allocates a fresh Encoder, writes v with c,
// and returns the resulting bytes.
func Encode[E any](c Coder[E], v E) []byte {
	enc := NewEncoder()
	c.Encode(enc, v)
	return enc.Data()
}

// Decode is a convenience that wraps data in a Decoder and reads one value
// with c.
func Decode[E any](c Coder[E], data []byte) E {
	dec := NewDecoder(data)
	return c.Decode(dec)
}
