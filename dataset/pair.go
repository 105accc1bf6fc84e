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

import "fmt"

// Pair is the payload of a Zip result: the two datasets' values held side
// by side.
type Pair[T, S any] struct {
	First  T
	Second S
}

func (p Pair[T, S]) String() string {
	return fmt.Sprintf("(%v, %v)", p.First, p.Second)
}

// Swap exchanges the two halves of a Pair, used to test Zip commutativity
// (spec.md section 8, property 4: D.Zip(E).Map(swap) == E.Zip(D)).
func Swap[T, S any](p Pair[T, S]) Pair[S, T] {
	return Pair[S, T]{First: p.Second, Second: p.First}
}
