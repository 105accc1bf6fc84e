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

// Package synthetic builds DataSet values with a prespecified shape for
// load and scale testing, adapted from transforms/io/synthetic's
// SourceConfig-driven record generator: instead of splitting a bounded
// restriction across SDF bundles, it bundles generated elements directly
// into a DataSet's Parallel tree.
package synthetic

import (
	"time"

	"hillview.dev/dataset/dataset"
)

// Config controls Records' output shape and pacing.
type Config struct {
	// NumRecords is the total number of leaves Records produces.
	NumRecords int
	// NumBundles is how many Parallel children the leaves are grouped
	// into, mirroring SourceConfig.InitialSplitNumBundles. A value <= 1
	// puts every leaf into a single Parallel child.
	NumBundles int
	// PerElementDelay simulates a slow upstream producer, mirroring
	// syntheticStep.PerElementDelay.
	PerElementDelay time.Duration
}

// Records builds a Parallel dataset of cfg.NumRecords leaves produced by
// gen, grouped into cfg.NumBundles children in generation order.
func Records[T any](cfg Config, gen func(i int) T) dataset.DataSet[T] {
	bundles := cfg.NumBundles
	if bundles < 1 {
		bundles = 1
	}
	if cfg.NumRecords < 1 {
		return dataset.Parallel[T]()
	}
	if bundles > cfg.NumRecords {
		bundles = cfg.NumRecords
	}

	var children []dataset.DataSet[T]
	i := 0
	for b := 1; b <= bundles; b++ {
		end := b * cfg.NumRecords / bundles
		leaves := make([]dataset.DataSet[T], 0, end-i)
		for ; i < end; i++ {
			if cfg.PerElementDelay > 0 {
				time.Sleep(cfg.PerElementDelay)
			}
			leaves = append(leaves, dataset.Local(gen(i)))
		}
		children = append(children, dataset.Parallel(leaves...))
	}
	return dataset.Parallel(children...)
}

// Balanced builds a depth-level, fanout-wide tree of Parallel datasets
// whose leaves are produced by leaf, indexed in traversal order. depth
// == 0 yields a single Local leaf; it exists for tests that need a
// Parallel-of-Parallel shape Records' flat bundling doesn't produce.
func Balanced[T any](depth, fanout int, leaf func(i int) T) dataset.DataSet[T] {
	d, _ := balanced(depth, fanout, 0, leaf)
	return d
}

func balanced[T any](depth, fanout, next int, leaf func(i int) T) (dataset.DataSet[T], int) {
	if depth <= 0 {
		return dataset.Local(leaf(next)), next + 1
	}
	children := make([]dataset.DataSet[T], fanout)
	for i := 0; i < fanout; i++ {
		children[i], next = balanced(depth-1, fanout, next, leaf)
	}
	return dataset.Parallel(children...), next
}
