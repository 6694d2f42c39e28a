// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bonial-oss/cve-pulse/internal/store/file"
)

func TestManager_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	m := NewManager(file.New(t.TempDir()))

	_, err := m.Load(ctx)
	assert.ErrorIs(t, err, ErrNotSignedIn)

	s := New("alice", "alice@example.com", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, m.Save(ctx, s))

	got, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	require.NoError(t, m.Clear(ctx))
	_, err = m.Load(ctx)
	assert.ErrorIs(t, err, ErrNotSignedIn)

	// Clearing twice is fine.
	require.NoError(t, m.Clear(ctx))
}

func TestManager_NoPasswordPersisted(t *testing.T) {
	ctx := context.Background()
	st := file.New(t.TempDir())
	require.NoError(t, NewManager(st).Save(ctx, New("bob", "bob@example.com", time.Now())))

	data, err := st.Get(ctx, Key)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "password")
}

func TestManager_Corrupt(t *testing.T) {
	ctx := context.Background()
	st := file.New(t.TempDir())
	require.NoError(t, st.Put(ctx, Key, []byte("{")))

	_, err := NewManager(st).Load(ctx)
	assert.ErrorContains(t, err, "decoding session")
}

func TestSession_WithIsCopy(t *testing.T) {
	s := New("alice", "alice@example.com", time.Now())

	renamed := s.WithUsername("alice2")
	moved := s.WithEmail("new@example.com")

	assert.Equal(t, "alice", s.Username)
	assert.Equal(t, "alice@example.com", s.Email)
	assert.Equal(t, "alice2", renamed.Username)
	assert.Equal(t, "alice@example.com", renamed.Email)
	assert.Equal(t, "new@example.com", moved.Email)
}
