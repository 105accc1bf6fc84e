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

// Package registry implements the server-side object table and session
// table described in spec.md section 4.7. It is transport agnostic: the
// rpcserver package looks objects up here and serializes/deserializes
// requests around it.
package registry

import (
	"sync"

	"github.com/google/uuid"

	"hillview.dev/dataset/internal/dserrors"
)

// ID is the 128 bit object identifier used to address a dataset object
// across the RPC boundary, split into a high/low pair of int64s the way
// the wire envelope carries it (spec.md section 6: "an object id is a pair
// of signed 64 bit integers").
type ID struct {
	High int64
	Low  int64
}

// NewID mints a fresh random object id.
func NewID() ID {
	u := uuid.New()
	hi := int64(u[0])<<56 | int64(u[1])<<48 | int64(u[2])<<40 | int64(u[3])<<32 |
		int64(u[4])<<24 | int64(u[5])<<16 | int64(u[6])<<8 | int64(u[7])
	lo := int64(u[8])<<56 | int64(u[9])<<48 | int64(u[10])<<40 | int64(u[11])<<32 |
		int64(u[12])<<24 | int64(u[13])<<16 | int64(u[14])<<8 | int64(u[15])
	return ID{High: hi, Low: lo}
}

func (id ID) String() string {
	return uuidFromParts(id.High, id.Low).String()
}

// ParseID parses the string form a ID.String() produces, for the webrpc
// frontend, where an object id travels as a JSON string rather than a
// (highId, lowId) pair of wire integers.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ID{}, dserrors.New(dserrors.CodeObjectNotFound, "malformed object id %q", s)
	}
	return ID{High: get64(u[0:8]), Low: get64(u[8:16])}, nil
}

func uuidFromParts(hi, lo int64) uuid.UUID {
	var u uuid.UUID
	put64(u[0:8], hi)
	put64(u[8:16], lo)
	return u
}

func put64(b []byte, v int64) {
	uv := uint64(v)
	for i := 7; i >= 0; i-- {
		b[i] = byte(uv)
		uv >>= 8
	}
}

func get64(b []byte) int64 {
	var uv uint64
	for i := 0; i < 8; i++ {
		uv = uv<<8 | uint64(b[i])
	}
	return int64(uv)
}

// ObjectManager is the server-side table mapping object ids to the live
// value they name: a LocalDataSet, a ParallelDataSet, or a sketch/map
// result awaiting retrieval. It is the Go analogue of Hillview's
// RpcObjectManager, generalized from a single global table to one table
// per server instance.
type ObjectManager struct {
	mu      sync.Mutex
	objects map[ID]any
	refs    map[ID]int
}

// NewObjectManager returns an empty object table.
func NewObjectManager() *ObjectManager {
	return &ObjectManager{
		objects: make(map[ID]any),
		refs:    make(map[ID]int),
	}
}

// Insert adds handle under a freshly minted id and returns it with a
// reference count of one.
func (m *ObjectManager) Insert(handle any) ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := NewID()
	for _, exists := m.objects[id]; exists; _, exists = m.objects[id] {
		id = NewID()
	}
	m.objects[id] = handle
	m.refs[id] = 1
	return id
}

// Lookup returns the handle registered under id, or ObjectNotFound.
func (m *ObjectManager) Lookup(id ID) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.objects[id]
	if !ok {
		return nil, dserrors.ObjectNotFound(id.High, id.Low)
	}
	return h, nil
}

// Retain increments id's reference count. Used when a derived dataset
// keeps a parent alive (e.g. a Zip partner) beyond the call that
// registered it.
func (m *ObjectManager) Retain(id ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[id]; ok {
		m.refs[id]++
	}
}

// Release decrements id's reference count, removing the entry once it
// reaches zero. Returns whether the object was removed.
func (m *ObjectManager) Release(id ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.refs[id]
	if !ok {
		return false
	}
	n--
	if n <= 0 {
		delete(m.objects, id)
		delete(m.refs, id)
		return true
	}
	m.refs[id] = n
	return false
}

// Len reports how many objects are currently registered, for diagnostics
// and tests.
func (m *ObjectManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
