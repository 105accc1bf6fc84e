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

package transport

import "testing"

// grpc.NewClient establishes lazily: Dial never blocks on an actual
// connection for these tests, it only needs to parse addr.
const testAddr = "127.0.0.1:0"

func TestDialReusesConnectionForSameAddress(t *testing.T) {
	defer CloseAll()
	first, err := Dial(testAddr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	second, err := Dial(testAddr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if first != second {
		t.Errorf("Dial returned different connections for the same address")
	}
}

func TestDialReturnsDistinctConnectionsPerAddress(t *testing.T) {
	defer CloseAll()
	a, err := Dial("127.0.0.1:1")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	b, err := Dial("127.0.0.1:2")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if a == b {
		t.Errorf("Dial returned the same connection for two different addresses")
	}
}

func TestCloseRemovesFromPool(t *testing.T) {
	defer CloseAll()
	first, err := Dial(testAddr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if err := Close(testAddr); err != nil {
		t.Fatalf("Close: %v", err)
	}
	second, err := Dial(testAddr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if first == second {
		t.Errorf("Dial after Close returned the same connection instance")
	}
}

func TestCloseOfUnknownAddressIsANoOp(t *testing.T) {
	if err := Close("never-dialed:0"); err != nil {
		t.Errorf("Close of an unpooled address returned %v, want nil", err)
	}
}

func TestCloseAllEmptiesThePool(t *testing.T) {
	if _, err := Dial(testAddr); err != nil {
		t.Fatalf("Dial: %v", err)
	}
	CloseAll()
	poolMu.Lock()
	n := len(pool)
	poolMu.Unlock()
	if n != 0 {
		t.Errorf("pool has %d entries after CloseAll, want 0", n)
	}
}
