// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reveal

import "sync"

// Set holds one Revealer per message id.
type Set struct {
	mu    sync.Mutex
	items map[string]*Revealer
	opts  []Option
}

// NewSet returns an empty set whose Revealers are built with opts.
func NewSet(opts ...Option) *Set {
	return &Set{items: make(map[string]*Revealer), opts: opts}
}

// Get returns the Revealer for id, or nil.
func (s *Set) Get(id string) *Revealer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[id]
}

// Ensure returns the Revealer for id, creating it if needed.
func (s *Set) Ensure(id string) *Revealer {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	if !ok {
		r = New(s.opts...)
		s.items[id] = r
	}
	return r
}

// Remove disposes and forgets the Revealer for id.
func (s *Set) Remove(id string) {
	s.mu.Lock()
	r := s.items[id]
	delete(s.items, id)
	s.mu.Unlock()
	if r != nil {
		r.Dispose()
	}
}

// Reset disposes every Revealer.
func (s *Set) Reset() {
	s.mu.Lock()
	items := s.items
	s.items = make(map[string]*Revealer)
	s.mu.Unlock()
	for _, r := range items {
		r.Dispose()
	}
}

// Len returns the number of tracked Revealers.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Configure replaces the options used for Revealers created from now on.
func (s *Set) Configure(opts ...Option) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts = opts
}
