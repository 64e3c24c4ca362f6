// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

package registry

import (
	"testing"

	"github.com/jeremyhahn/go-custody/pkg/storage/memory"
	"github.com/jeremyhahn/go-custody/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New(memory.New())
	require.NoError(t, err)
	return r
}

func TestRegister(t *testing.T) {
	r := newTestRegistry(t)

	party, err := r.Register("alice", types.RoleSigner, "pk-alice")
	require.NoError(t, err)
	assert.NotEmpty(t, party.ID)
	assert.Equal(t, "alice", party.DisplayName)
	assert.Equal(t, types.RoleSigner, party.Role)
	assert.True(t, party.Enabled)
	assert.False(t, party.CreatedAt.IsZero())
}

func TestRegisterValidation(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name      string
		display   string
		role      types.PartyRole
		commsKey  string
	}{
		{"missing name", "", types.RoleSigner, "pk"},
		{"missing comms key", "alice", types.RoleSigner, ""},
		{"bad role", "alice", types.PartyRole("admin"), "pk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Register(tt.display, tt.role, tt.commsKey)
			assert.ErrorIs(t, err, ErrInvalidParty)
		})
	}
}

func TestRegisterDuplicateCommsKey(t *testing.T) {
	r := newTestRegistry(t)

	first, err := r.Register("alice", types.RoleSigner, "pk-shared")
	require.NoError(t, err)

	_, err = r.Register("bob", types.RoleSigner, "pk-shared")
	require.ErrorIs(t, err, ErrDuplicateParty)

	var dup *DuplicatePartyError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, first.ID, dup.ExistingPartyID)
}

func TestRevokeIsIdempotentAndKeepsRecord(t *testing.T) {
	r := newTestRegistry(t)

	party, err := r.Register("alice", types.RoleSigner, "pk-alice")
	require.NoError(t, err)

	require.NoError(t, r.Revoke(party.ID))
	require.NoError(t, r.Revoke(party.ID))

	// Revoked parties stay resolvable for signature attribution.
	got, err := r.Get(party.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)

	// But the comms key stays claimed: no re-registration.
	_, err = r.Register("alice-again", types.RoleSigner, "pk-alice")
	assert.ErrorIs(t, err, ErrDuplicateParty)
}

func TestRevokeUnknownParty(t *testing.T) {
	r := newTestRegistry(t)
	assert.ErrorIs(t, r.Revoke("no-such-party"), ErrPartyNotFound)
}

func TestListEnabled(t *testing.T) {
	r := newTestRegistry(t)

	a, err := r.Register("alice", types.RoleSigner, "pk-a")
	require.NoError(t, err)
	_, err = r.Register("bob", types.RoleCoordinator, "pk-b")
	require.NoError(t, err)

	require.NoError(t, r.Revoke(a.ID))

	enabled, err := r.ListEnabled()
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, "bob", enabled[0].DisplayName)
}

func TestResolveEnabled(t *testing.T) {
	r := newTestRegistry(t)

	a, err := r.Register("alice", types.RoleSigner, "pk-a")
	require.NoError(t, err)
	b, err := r.Register("bob", types.RoleSigner, "pk-b")
	require.NoError(t, err)

	parties, err := r.ResolveEnabled([]string{a.ID, b.ID})
	require.NoError(t, err)
	assert.Len(t, parties, 2)

	_, err = r.ResolveEnabled([]string{a.ID, a.ID})
	assert.ErrorIs(t, err, ErrInvalidParty)

	require.NoError(t, r.Revoke(b.ID))
	_, err = r.ResolveEnabled([]string{a.ID, b.ID})
	assert.ErrorIs(t, err, ErrInvalidParty)
}
