// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maryambaig33/HallMark/locator/geo"
)

const (
	IdleTimeout   = 30 * time.Minute
	SweepInterval = 5 * time.Minute
)

// Session is one browser's page.
type Session struct {
	ID         string
	Controller *Controller
	// Locator receives the browser's location reports for this session.
	Locator *geo.ReportLocator

	lastSeen time.Time
	streams  int
}

// NewControllerFunc builds the controller for a new session. ctx carries the request that created it.
type NewControllerFunc func(ctx context.Context, locator geo.Locator) *Controller

type Store struct {
	newController NewControllerFunc
	now           func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore(newController NewControllerFunc) *Store {
	return &Store{
		newController: newController,
		now:           time.Now,
		sessions:      make(map[string]*Session),
	}
}

func (s *Store) Create(ctx context.Context) *Session {
	locator := geo.NewReportLocator()
	sess := &Session{
		ID:         uuid.NewString(),
		Controller: s.newController(ctx, locator),
		Locator:    locator,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.lastSeen = s.now()
	s.sessions[sess.ID] = sess
	return sess
}

// Get looks up a session and marks it as recently used.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if ok {
		sess.lastSeen = s.now()
	}
	return sess, ok
}

// Attach marks a session as watched by an open page. A watched session is never swept.
// The returned detach must be called once the page goes away.
func (s *Store) Attach(id string) (detach func(), ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	sess.streams++
	sess.lastSeen = s.now()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			sess.streams--
			sess.lastSeen = s.now()
		})
	}, true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops unwatched sessions nobody has touched for IdleTimeout and returns how many went.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-IdleTimeout)
	removed := 0
	for id, sess := range s.sessions {
		if sess.streams == 0 && sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps idle sessions every SweepInterval until ctx is done.
func (s *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Printf("Dropped %d idle sessions", n)
			}
		}
	}
}
