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

// Package dataset implements the core dataset abstraction: a polymorphic
// handle over a value of type T fragmented as Local, Parallel, or Remote,
// and the four operations (Map, FlatMap, Zip, Sketch) that turn one
// dataset into a stream of partial results toward another.
package dataset

import "fmt"

// PartialResult is one item in the stream an operation produces: a
// progress delta in [0,1] and, ordinarily, a payload of type R. Across one
// subscription the deltas emitted sum to 1.0 within floating point
// tolerance on successful completion.
type PartialResult[R any] struct {
	DeltaDone  float64
	Payload    R
	hasPayload bool
}

// Result builds a PartialResult carrying payload.
func Result[R any](deltaDone float64, payload R) PartialResult[R] {
	return PartialResult[R]{DeltaDone: deltaDone, Payload: payload, hasPayload: true}
}

// ProgressOnly builds a PartialResult carrying no payload, used internally
// where a delta needs to be reported without a value.
func ProgressOnly[R any](deltaDone float64) PartialResult[R] {
	return PartialResult[R]{DeltaDone: deltaDone}
}

// HasPayload reports whether Payload holds a meaningful value.
func (p PartialResult[R]) HasPayload() bool { return p.hasPayload }

func (p PartialResult[R]) String() string {
	if !p.hasPayload {
		return fmt.Sprintf("PartialResult(delta=%g)", p.DeltaDone)
	}
	return fmt.Sprintf("PartialResult(delta=%g, payload=%v)", p.DeltaDone, p.Payload)
}
