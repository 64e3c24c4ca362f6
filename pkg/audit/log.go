// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jeremyhahn/go-custody/pkg/storage"
	"github.com/jeremyhahn/go-custody/pkg/types"
)

const auditPrefix = "audit/"

// Log is a storage-backed Logger. Keys embed a monotonic sequence so
// entries list in append order; nothing in this type mutates or deletes an
// entry once written.
type Log struct {
	backend storage.Backend
	seq     atomic.Uint64
}

var _ Logger = (*Log)(nil)

// NewLog creates an audit log over the given storage backend.
func NewLog(backend storage.Backend) (*Log, error) {
	if backend == nil {
		return nil, fmt.Errorf("audit: storage backend is required")
	}
	return &Log{backend: backend}, nil
}

// Append records an entry. The write is conditional on a fresh key, so an
// existing entry can never be overwritten.
func (l *Log) Append(ctx context.Context, entry *types.AccessLogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("audit: entry is nil")
	}
	if entry.WalletID == "" {
		return fmt.Errorf("audit: entry requires a wallet id")
	}
	if entry.Action == "" {
		return fmt.Errorf("audit: entry requires an action")
	}

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit: failed to marshal entry: %w", err)
	}

	key := fmt.Sprintf("%s%s/%020d-%016x-%s",
		auditPrefix, entry.WalletID, entry.CreatedAt.UnixNano(), l.seq.Add(1), entry.ID)
	if err := l.backend.PutIfAbsent(key, data, nil); err != nil {
		return fmt.Errorf("audit: failed to append entry: %w", err)
	}

	return nil
}

// QueryByWallet returns a wallet's entries within the time range, oldest
// first.
func (l *Log) QueryByWallet(ctx context.Context, walletID string, from, to time.Time) ([]*types.AccessLogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keys, err := l.backend.List(auditPrefix + walletID + "/")
	if err != nil {
		return nil, fmt.Errorf("audit: failed to list entries: %w", err)
	}

	entries := make([]*types.AccessLogEntry, 0, len(keys))
	for _, key := range keys {
		data, err := l.backend.Get(key)
		if err != nil {
			return nil, fmt.Errorf("audit: failed to load entry %s: %w", key, err)
		}

		var entry types.AccessLogEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil, fmt.Errorf("audit: failed to unmarshal entry %s: %w", key, err)
		}

		if !from.IsZero() && entry.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && entry.CreatedAt.After(to) {
			continue
		}
		entries = append(entries, &entry)
	}

	return entries, nil
}
