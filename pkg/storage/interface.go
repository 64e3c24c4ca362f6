// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

// Package storage provides an abstraction layer for the durable key-value
// stores backing custody records. It supports in-memory and file-based
// implementations behind a common interface.
//
// Custody records are grouped by key prefix:
//
//	parties/<party_id>
//	wallets/<wallet_id>
//	shares/<wallet_id>/<party_id>
//	txs/pending/<tx_id>
//	txs/executed/<tx_id>
//	audit/<wallet_id>/<seq>
package storage

import "io/fs"

// Backend defines the interface for storage backends.
// All implementations must be thread-safe and must provide read-after-write
// consistency per key: a Get following a successful Put or PutIfAbsent for
// the same key never returns a partially written record.
type Backend interface {
	// Get retrieves the value for the given key.
	// Returns ErrNotFound if the key does not exist.
	Get(key string) ([]byte, error)

	// Put stores the value for the given key.
	// If the key already exists, it is overwritten.
	Put(key string, value []byte, opts *Options) error

	// PutIfAbsent stores the value only if no value exists for the key.
	// Returns ErrAlreadyExists otherwise. This is the atomic conditional
	// write that enforces write-once records such as key shares.
	PutIfAbsent(key string, value []byte, opts *Options) error

	// Delete removes the key and its value from storage.
	// Returns ErrNotFound if the key does not exist.
	Delete(key string) error

	// List returns all keys with the given prefix, sorted.
	// If prefix is empty, all keys are returned.
	List(prefix string) ([]string, error)

	// Exists checks if a key exists in storage.
	Exists(key string) (bool, error)

	// Close releases any resources held by the backend.
	Close() error
}

// Options contains optional parameters for storage operations.
type Options struct {
	// Permissions sets the file permissions for file-based storage.
	Permissions fs.FileMode
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() *Options {
	return &Options{
		Permissions: 0600,
	}
}
