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
	"time"

	"hillview.dev/dataset/internal/dsopts"
)

// Options configure dataset operations with the properties listed in
// spec.md section 6. Each operation takes a variadic list of Options,
// where properties set in later options override ones set earlier.
type Options = dsopts.Options

// Name sets a human-readable name for a dataset or operation, used only
// in diagnostics.
func Name(name string) Options {
	return &dsopts.Struct{Name: name}
}

// Endpoint sets the server address a RemoteDataSet or client should
// connect to.
func Endpoint(endpoint string) Options {
	return &dsopts.Struct{Endpoint: endpoint}
}

// ComputePoolSize bounds the parallelism of the compute pool used by
// Local dataset operations. Defaults to the number of CPUs. Each Local
// operation builds its own pool of this size; pools are not shared
// between operations.
func ComputePoolSize(n int) Options {
	return &dsopts.Struct{ComputePoolSizeSet: true, ComputePoolSize: n}
}

// SeparateThread controls whether Local dataset operations hop onto the
// compute pool before delivering items to subscribers. Defaults to true.
func SeparateThread(v bool) Options {
	return &dsopts.Struct{SeparateThreadSet: true, SeparateThread: v}
}

// RPCDeadline bounds how long a single RemoteDataSet call may run before
// its subscription is cancelled. Defaults to unbounded.
func RPCDeadline(d time.Duration) Options {
	return &dsopts.Struct{RPCDeadlineSet: true, RPCDeadline: d}
}

func resolve(opts []Options) *dsopts.Struct {
	s := &dsopts.Struct{}
	s.Join(opts...)
	return s
}
