// Copyright 2024 Open E-Line Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package form

import (
	"errors"
	"fmt"
	"time"

	"github.com/EagleChen/mapmutex"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ErrSessionNotFound is returned by Update for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// Sessions expire two hours after their last write, the lifetime of an
// abandoned panel tab.
const sessionExpiration = 2 * time.Hour

// Store keeps the forms of all live panel sessions. Forms are stored by
// value: every read hands out an independent snapshot, concurrent writes to
// the same session are serialized with a keyed mutex.
type Store struct {
	sessions *cache.Cache
	mutex    *mapmutex.Mutex
}

func NewStore() *Store {
	return &Store{
		sessions: cache.New(sessionExpiration, 10*time.Minute),
		mutex:    mapmutex.NewCustomizedMapMutex(800, 100000000, 10, 1.1, 0.2),
	}
}

// Create opens a session holding an all-empty form.
func (s *Store) Create() (sessionID string, f CircuitForm) {
	sessionID = uuid.New().String()
	s.sessions.SetDefault(sessionID, f)
	return sessionID, f
}

// Get returns a snapshot of the session's form. Later updates of the session
// never leak into a snapshot that has already been handed out.
func (s *Store) Get(sessionID string) (CircuitForm, bool) {
	value, found := s.sessions.Get(sessionID)
	if !found {
		return CircuitForm{}, false
	}
	f, ok := value.(CircuitForm)
	if !ok {
		return CircuitForm{}, false
	}
	return f, true
}

// Update sets one field of the session's form and refreshes the session
// expiration. Updates of the same session are serialized, updates of
// different sessions run concurrently.
func (s *Store) Update(sessionID string, field string, value string) error {
	if !s.mutex.TryLock(sessionID) {
		return fmt.Errorf("session %s is busy", sessionID)
	}
	defer s.mutex.Unlock(sessionID)

	f, found := s.Get(sessionID)
	if !found {
		return ErrSessionNotFound
	}
	if err := f.Set(field, value); err != nil {
		return err
	}
	s.sessions.SetDefault(sessionID, f)
	return nil
}

// Delete closes the session. Deleting an unknown session is a no-op.
func (s *Store) Delete(sessionID string) {
	s.sessions.Delete(sessionID)
}
