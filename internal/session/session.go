// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

// Package session persists the signed-in user between CLI invocations.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bonial-oss/cve-pulse/internal/store"
)

// Key is the store slot the session lives in.
const Key = "auth-storage"

// ErrNotSignedIn is returned by Load when no session is stored.
var ErrNotSignedIn = errors.New("not signed in")

// Session identifies the signed-in user. Values are immutable; the With
// methods return modified copies. Passwords are never part of a session.
type Session struct {
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	SignedInAt time.Time `json:"signedInAt"`
}

func New(username, email string, now time.Time) Session {
	return Session{Username: username, Email: email, SignedInAt: now.UTC()}
}

func (s Session) WithUsername(username string) Session {
	s.Username = username
	return s
}

func (s Session) WithEmail(email string) Session {
	s.Email = email
	return s
}

// Manager reads and writes the session in a store.
type Manager struct {
	store store.Store
}

func NewManager(s store.Store) *Manager {
	return &Manager{store: s}
}

func (m *Manager) Save(ctx context.Context, s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := m.store.Put(ctx, Key, data); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (m *Manager) Load(ctx context.Context) (Session, error) {
	data, err := m.store.Get(ctx, Key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, ErrNotSignedIn
		}
		return Session{}, fmt.Errorf("loading session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("decoding session: %w", err)
	}
	if s.Username == "" {
		return Session{}, ErrNotSignedIn
	}
	return s, nil
}

// Clear signs out. Clearing when not signed in is not an error.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.store.Delete(ctx, Key); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}
