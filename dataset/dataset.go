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
	"fmt"
	"strings"

	"hillview.dev/dataset/internal/registry"
)

// Kind discriminates the three DataSet variants. Dispatch on Kind rather
// than on dynamic type keeps the recursion in Map/FlatMap/Zip/Sketch
// visible at the call site instead of buried in virtual calls, per the
// "closed tagged variant" design note this module follows.
type Kind int

const (
	// KindLocal holds exactly one value of T.
	KindLocal Kind = iota
	// KindParallel holds an ordered, possibly empty, list of children.
	KindParallel
	// KindRemote proxies a handle living on another server.
	KindRemote
)

func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "Local"
	case KindParallel:
		return "Parallel"
	case KindRemote:
		return "Remote"
	default:
		return "Unknown"
	}
}

// DataSet is the polymorphic dataset handle of spec section 3: exactly one
// of Local(value), Parallel(children), or Remote(server, objectID) is
// populated, selected by Kind. The zero value is not a valid DataSet; use
// Local, Parallel, or Remote to build one.
type DataSet[T any] struct {
	kind     Kind
	local    T
	children []DataSet[T]
	server   string
	objectID registry.ID
}

// Local builds a leaf dataset holding v.
func Local[T any](v T) DataSet[T] {
	return DataSet[T]{kind: KindLocal, local: v}
}

// Parallel builds an interior node over children, in the given order.
// Zero children is legal (spec section 9, open question (a)): it denotes
// an empty parallel collection, not an error.
func Parallel[T any](children ...DataSet[T]) DataSet[T] {
	return DataSet[T]{kind: KindParallel, children: children}
}

// Remote builds a proxy for a handle living on server, identified there by
// id.
func Remote[T any](server string, id registry.ID) DataSet[T] {
	return DataSet[T]{kind: KindRemote, server: server, objectID: id}
}

// Kind reports which variant d is.
func (d DataSet[T]) Kind() Kind { return d.kind }

// Value returns the held value of a Local dataset. It panics if d is not
// Local; callers must check Kind first, exactly as a type switch on a
// closed variant would require.
func (d DataSet[T]) Value() T {
	if d.kind != KindLocal {
		panic(fmt.Sprintf("dataset: Value() called on a %s dataset", d.kind))
	}
	return d.local
}

// Children returns the ordered child list of a Parallel dataset. It
// panics if d is not Parallel.
func (d DataSet[T]) Children() []DataSet[T] {
	if d.kind != KindParallel {
		panic(fmt.Sprintf("dataset: Children() called on a %s dataset", d.kind))
	}
	return d.children
}

// Remote returns the server address and object id of a Remote dataset. It
// panics if d is not Remote.
func (d DataSet[T]) Remote() (server string, id registry.ID) {
	if d.kind != KindRemote {
		panic(fmt.Sprintf("dataset: Remote() called on a %s dataset", d.kind))
	}
	return d.server, d.objectID
}

// String renders d for diagnostics, recursing into Parallel children. It
// exists for the same reason Hillview's LocalDataSet.toString does: so a
// handle can be inspected in logs without a debugger attached.
func (d DataSet[T]) String() string {
	switch d.kind {
	case KindLocal:
		return fmt.Sprintf("Local(%v)", d.local)
	case KindParallel:
		parts := make([]string, len(d.children))
		for i, c := range d.children {
			parts[i] = c.String()
		}
		return fmt.Sprintf("Parallel[%s]", strings.Join(parts, ", "))
	case KindRemote:
		return fmt.Sprintf("Remote(%s, %s)", d.server, d.objectID)
	default:
		return "Unknown"
	}
}
