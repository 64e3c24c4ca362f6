// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

// Package registry manages the identity and lifecycle of signing parties.
// Parties are registered once per communication public key and are disabled
// rather than deleted on revocation, so historical partial signatures remain
// attributable for audit.
package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jeremyhahn/go-custody/pkg/storage"
	"github.com/jeremyhahn/go-custody/pkg/types"
)

const (
	partyPrefix    = "parties/"
	partyKeyPrefix = "party_keys/"
)

// Registry resolves and manages signing parties.
type Registry struct {
	store storage.Backend
}

// New creates a party registry backed by the given storage.
func New(store storage.Backend) (*Registry, error) {
	if store == nil {
		return nil, fmt.Errorf("registry: storage is required")
	}
	return &Registry{store: store}, nil
}

// Register creates a new signing party. The communication public key must be
// unique across all parties, enabled or revoked; a duplicate registration
// fails with a DuplicatePartyError carrying the existing party's identifier.
func (r *Registry) Register(name string, role types.PartyRole, commsPublicKey string) (*types.Party, error) {
	name = strings.TrimSpace(name)
	commsPublicKey = strings.TrimSpace(commsPublicKey)

	if name == "" {
		return nil, fmt.Errorf("%w: display name is required", ErrInvalidParty)
	}
	if commsPublicKey == "" {
		return nil, fmt.Errorf("%w: comms public key is required", ErrInvalidParty)
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: role %q", ErrInvalidParty, role)
	}

	party := &types.Party{
		ID:             uuid.New().String(),
		DisplayName:    name,
		Role:           role,
		CommsPublicKey: commsPublicKey,
		Enabled:        true,
		CreatedAt:      time.Now().UTC(),
	}

	// Claim the comms key first. The conditional put is the uniqueness
	// check; losing it means another party owns the key.
	keyIndex := partyKeyPrefix + fingerprint(commsPublicKey)
	if err := r.store.PutIfAbsent(keyIndex, []byte(party.ID), nil); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			existing, getErr := r.store.Get(keyIndex)
			if getErr != nil {
				return nil, fmt.Errorf("registry: failed to resolve duplicate party: %w", getErr)
			}
			return nil, &DuplicatePartyError{ExistingPartyID: string(existing)}
		}
		return nil, fmt.Errorf("registry: failed to index comms key: %w", err)
	}

	data, err := json.Marshal(party)
	if err != nil {
		return nil, fmt.Errorf("registry: failed to marshal party: %w", err)
	}

	if err := r.store.Put(partyPrefix+party.ID, data, nil); err != nil {
		// Release the claimed comms key so a retry can succeed.
		_ = r.store.Delete(keyIndex)
		return nil, fmt.Errorf("registry: failed to store party: %w", err)
	}

	return party, nil
}

// Revoke disables a party. Revoking an already-revoked party is a no-op.
// The party record remains resolvable forever.
func (r *Registry) Revoke(partyID string) error {
	party, err := r.Get(partyID)
	if err != nil {
		return err
	}

	if !party.Enabled {
		return nil
	}

	party.Enabled = false

	data, err := json.Marshal(party)
	if err != nil {
		return fmt.Errorf("registry: failed to marshal party: %w", err)
	}

	if err := r.store.Put(partyPrefix+party.ID, data, nil); err != nil {
		return fmt.Errorf("registry: failed to store party: %w", err)
	}

	return nil
}

// Get resolves a party by identifier, enabled or not.
func (r *Registry) Get(partyID string) (*types.Party, error) {
	if partyID == "" {
		return nil, fmt.Errorf("%w: empty party id", ErrPartyNotFound)
	}

	data, err := r.store.Get(partyPrefix + partyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPartyNotFound, partyID)
		}
		return nil, fmt.Errorf("registry: failed to load party %s: %w", partyID, err)
	}

	var party types.Party
	if err := json.Unmarshal(data, &party); err != nil {
		return nil, fmt.Errorf("registry: failed to unmarshal party %s: %w", partyID, err)
	}

	return &party, nil
}

// ListEnabled returns all enabled parties, ordered by identifier.
func (r *Registry) ListEnabled() ([]*types.Party, error) {
	keys, err := r.store.List(partyPrefix)
	if err != nil {
		return nil, fmt.Errorf("registry: failed to list parties: %w", err)
	}

	var parties []*types.Party
	for _, key := range keys {
		data, err := r.store.Get(key)
		if err != nil {
			continue
		}
		var party types.Party
		if err := json.Unmarshal(data, &party); err != nil {
			continue
		}
		if party.Enabled {
			parties = append(parties, &party)
		}
	}

	return parties, nil
}

// ResolveEnabled resolves each party id and verifies it is a distinct,
// enabled party. Used by the custody manager to validate signer sets before
// key generation.
func (r *Registry) ResolveEnabled(partyIDs []string) ([]*types.Party, error) {
	seen := make(map[string]struct{}, len(partyIDs))
	parties := make([]*types.Party, 0, len(partyIDs))

	for _, id := range partyIDs {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicate party %s in signer set", ErrInvalidParty, id)
		}
		seen[id] = struct{}{}

		party, err := r.Get(id)
		if err != nil {
			return nil, err
		}
		if !party.Enabled {
			return nil, fmt.Errorf("%w: party %s is revoked", ErrInvalidParty, id)
		}
		parties = append(parties, party)
	}

	return parties, nil
}

// fingerprint returns a stable index token for a comms public key.
func fingerprint(commsPublicKey string) string {
	sum := sha256.Sum256([]byte(commsPublicKey))
	return hex.EncodeToString(sum[:])
}
