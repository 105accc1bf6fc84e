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

// Package transport pools gRPC client connections to remote dataset
// servers, one per address, so that a tree of RemoteDataSet handles
// talking to the same server share a single connection instead of
// dialing anew for every operation. It adapts the cache-by-key,
// mutex-guarded map of internal/runner/prism/prism.go, which caches
// subprocess handles keyed by Options; here the key is a server address
// and the cached value is a live *grpc.ClientConn.
package transport

import (
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var (
	poolMu sync.Mutex
	pool   = map[string]*grpc.ClientConn{}
)

// Dial returns a shared *grpc.ClientConn to addr, dialing a fresh one the
// first time addr is seen and reusing it afterward. The returned
// connection must not be closed by the caller; use Close to release it
// from the pool explicitly (e.g. during process shutdown or tests).
func Dial(addr string) (*grpc.ClientConn, error) {
	poolMu.Lock()
	defer poolMu.Unlock()
	if cc, ok := pool[addr]; ok {
		return cc, nil
	}
	cc, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	pool[addr] = cc
	return cc, nil
}

// Close closes and forgets the pooled connection to addr, if any.
func Close(addr string) error {
	poolMu.Lock()
	defer poolMu.Unlock()
	cc, ok := pool[addr]
	if !ok {
		return nil
	}
	delete(pool, addr)
	return cc.Close()
}

// CloseAll closes and forgets every pooled connection. Intended for
// graceful process shutdown and test teardown.
func CloseAll() {
	poolMu.Lock()
	defer poolMu.Unlock()
	for addr, cc := range pool {
		cc.Close()
		delete(pool, addr)
	}
}
