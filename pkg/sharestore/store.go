// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

// Package sharestore persists sealed key shares, one per (wallet, party).
// Shares are write-once: a second write for the same pair always fails.
// Blobs stored here are opaque to every caller except the crypto engine
// that sealed them; the store itself never sees cleartext share material.
package sharestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jeremyhahn/go-custody/pkg/storage"
	"github.com/jeremyhahn/go-custody/pkg/types"
)

const sharePrefix = "shares/"

var (
	// ErrDuplicateShare is returned when a share already exists for the
	// (wallet, party) pair.
	ErrDuplicateShare = errors.New("sharestore: share already exists")

	// ErrShareNotFound is returned when no share exists for the pair.
	ErrShareNotFound = errors.New("sharestore: share not found")
)

// DuplicateShareError wraps ErrDuplicateShare with the identifiers of the
// existing share so the caller can reconcile.
type DuplicateShareError struct {
	WalletID string
	PartyID  string
}

func (e *DuplicateShareError) Error() string {
	return fmt.Sprintf("share already exists for wallet %s party %s", e.WalletID, e.PartyID)
}

func (e *DuplicateShareError) Unwrap() error {
	return ErrDuplicateShare
}

// Store is the durable key share store.
type Store struct {
	backend storage.Backend
}

// New creates a share store over the given storage backend.
func New(backend storage.Backend) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("sharestore: storage backend is required")
	}
	return &Store{backend: backend}, nil
}

// Put persists a share. Fails with a DuplicateShareError if the
// (wallet, party) pair already holds one; shares are never overwritten.
func (s *Store) Put(ctx context.Context, share *types.KeyShare) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if share == nil {
		return fmt.Errorf("sharestore: share is nil")
	}
	if err := share.Validate(); err != nil {
		return fmt.Errorf("sharestore: %w", err)
	}

	data, err := json.Marshal(share)
	if err != nil {
		return fmt.Errorf("sharestore: failed to marshal share: %w", err)
	}

	if err := s.backend.PutIfAbsent(shareKey(share.WalletID, share.PartyID), data, nil); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return &DuplicateShareError{WalletID: share.WalletID, PartyID: share.PartyID}
		}
		return fmt.Errorf("sharestore: failed to store share: %w", err)
	}

	return nil
}

// Get retrieves the share for a (wallet, party) pair.
func (s *Store) Get(ctx context.Context, walletID, partyID string) (*types.KeyShare, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.backend.Get(shareKey(walletID, partyID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: wallet %s party %s", ErrShareNotFound, walletID, partyID)
		}
		return nil, fmt.Errorf("sharestore: failed to load share: %w", err)
	}

	var share types.KeyShare
	if err := json.Unmarshal(data, &share); err != nil {
		return nil, fmt.Errorf("sharestore: failed to unmarshal share: %w", err)
	}

	return &share, nil
}

// ListShares returns all shares for a wallet. Satisfies tss.ShareSource so
// the crypto engine can reach sealed shares during combination.
func (s *Store) ListShares(ctx context.Context, walletID string) ([]*types.KeyShare, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keys, err := s.backend.List(sharePrefix + walletID + "/")
	if err != nil {
		return nil, fmt.Errorf("sharestore: failed to list shares: %w", err)
	}

	shares := make([]*types.KeyShare, 0, len(keys))
	for _, key := range keys {
		data, err := s.backend.Get(key)
		if err != nil {
			return nil, fmt.Errorf("sharestore: failed to load share %s: %w", key, err)
		}
		var share types.KeyShare
		if err := json.Unmarshal(data, &share); err != nil {
			return nil, fmt.Errorf("sharestore: failed to unmarshal share %s: %w", key, err)
		}
		shares = append(shares, &share)
	}

	return shares, nil
}

// Count returns the number of shares persisted for a wallet.
func (s *Store) Count(ctx context.Context, walletID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	keys, err := s.backend.List(sharePrefix + walletID + "/")
	if err != nil {
		return 0, fmt.Errorf("sharestore: failed to count shares: %w", err)
	}

	return len(keys), nil
}

func shareKey(walletID, partyID string) string {
	return sharePrefix + walletID + "/" + partyID
}
