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

package registry

import (
	"sync"

	"hillview.dev/dataset/internal/dserrors"
)

// Subscription tracks the single in-flight call a session is allowed to
// have outstanding at a time, per spec.md section 4.7 ("a session may have
// at most one outstanding subscription; a second request on a busy session
// fails with SessionBusy without disturbing the first"). This mirrors the
// "Session already associated with a request!" guard in Hillview's
// RpcServer.java.
type Subscription struct {
	CallID string
	Cancel func()
}

// SessionManager tracks the live sessions a webrpc/rpcserver frontend is
// serving and the subscription each one currently owns, if any.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Subscription
}

// NewSessionManager returns an empty session table.
func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*Subscription)}
}

// AddSession registers a new session with no active subscription. It is a
// no-op if the session id is already registered.
func (m *SessionManager) AddSession(session string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[session]; !ok {
		m.sessions[session] = nil
	}
}

// RemoveSession forgets session, cancelling any subscription it still
// owns.
func (m *SessionManager) RemoveSession(session string) {
	m.mu.Lock()
	sub := m.sessions[session]
	delete(m.sessions, session)
	m.mu.Unlock()
	if sub != nil && sub.Cancel != nil {
		sub.Cancel()
	}
}

// Begin attaches sub to session as its active subscription, failing with
// SessionBusy if one is already active.
func (m *SessionManager) Begin(session string, sub *Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.sessions[session]
	if !ok {
		return dserrors.New(dserrors.CodeObjectNotFound, "no such session %s", session)
	}
	if existing != nil {
		return dserrors.SessionBusy(session)
	}
	m.sessions[session] = sub
	return nil
}

// End clears the active subscription for session, if its call id matches
// callID. A mismatched callID means a stale End arrived after a newer
// subscription began, and is ignored.
func (m *SessionManager) End(session, callID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.sessions[session]
	if !ok || sub == nil || sub.CallID != callID {
		return
	}
	m.sessions[session] = nil
}

// Forget removes session entirely, rather than leaving it registered
// with no active subscription, if its call id still matches callID. Use
// this instead of End for sessions keyed by something transient (like a
// handle id) that has no further use for the entry once the one
// subscription it ever holds ends, unlike a connection-scoped session
// that stays registered for the life of the connection. The same
// callID guard as End protects against removing an entry a newer
// subscription has since taken over.
func (m *SessionManager) Forget(session, callID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.sessions[session]
	if !ok || sub == nil || sub.CallID != callID {
		return
	}
	delete(m.sessions, session)
}

// GetSubscription returns the active subscription for session, if any.
func (m *SessionManager) GetSubscription(session string) *Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[session]
}
