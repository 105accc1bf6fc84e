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

// Package dsopts is the common options type shared across the dataset
// package and its subpackages, mirroring the teacher SDK's internal/beamopts.
package dsopts

import (
	"runtime"
	"time"
)

// Options is implemented by every functional option constructor the public
// API exposes (Name, Endpoint, ComputePoolSize, SeparateThread, RPCDeadline).
type Options interface {
	dsOptions(notForPublicUse)
}

// notForPublicUse prevents external packages from implementing Options
// directly; they must go through the constructors in the dataset package.
type notForPublicUse struct{}

// Struct is the combination of every option in struct form. It is cheap to
// pass down the call stack and to query, and is the concrete type every
// Options constructor returns.
type Struct struct {
	Name     string
	Endpoint string

	// ComputePoolSizeSet/ComputePoolSize size the compute pool each Local
	// dataset operation builds for itself (pools are not shared between
	// operations). Zero/unset means "use CPU count".
	ComputePoolSizeSet bool
	ComputePoolSize    int

	// SeparateThreadSet/SeparateThread gate whether Local operations hop
	// onto the compute pool before delivering items to subscribers.
	SeparateThreadSet bool
	SeparateThread    bool

	// RPCDeadlineSet/RPCDeadline bound how long a single RemoteDataSet RPC
	// may run before its subscription is cancelled.
	RPCDeadlineSet bool
	RPCDeadline    time.Duration
}

func (*Struct) dsOptions(notForPublicUse) {}

// Join merges srcs left to right into dst; a property set by a later src
// overrides one set by an earlier one.
func (dst *Struct) Join(srcs ...Options) {
	for _, src := range srcs {
		s, ok := src.(*Struct)
		if !ok || s == nil {
			continue
		}
		if s.Name != "" {
			dst.Name = s.Name
		}
		if s.Endpoint != "" {
			dst.Endpoint = s.Endpoint
		}
		if s.ComputePoolSizeSet {
			dst.ComputePoolSizeSet = true
			dst.ComputePoolSize = s.ComputePoolSize
		}
		if s.SeparateThreadSet {
			dst.SeparateThreadSet = true
			dst.SeparateThread = s.SeparateThread
		}
		if s.RPCDeadlineSet {
			dst.RPCDeadlineSet = true
			dst.RPCDeadline = s.RPCDeadline
		}
	}
}

// ResolvedComputePoolSize returns the configured pool size, defaulting to
// runtime.NumCPU() per spec.
func (s *Struct) ResolvedComputePoolSize() int {
	if s.ComputePoolSizeSet && s.ComputePoolSize > 0 {
		return s.ComputePoolSize
	}
	return runtime.NumCPU()
}

// ResolvedSeparateThread returns the configured separate_thread flag,
// defaulting to true per spec.
func (s *Struct) ResolvedSeparateThread() bool {
	if s.SeparateThreadSet {
		return s.SeparateThread
	}
	return true
}
