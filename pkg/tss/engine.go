// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

// Package tss defines the capability contract for threshold signature
// engines: distributed key generation, partial signing, signature
// combination and verification. The contract is algorithm-agnostic; any
// correct implementation can be substituted without changing wallet or
// transaction business logic. Raw share material never crosses this
// boundary in decrypted form.
package tss

import (
	"context"

	"github.com/jeremyhahn/go-custody/pkg/types"
)

// Engine is the pluggable threshold cryptography capability.
//
// Engine operations may involve network round trips in distributed
// deployments, so every operation that can block takes a context for
// caller-specified timeouts and cancellation. Cryptographic failures are
// non-retryable at this layer and surface as *CryptoEngineError; the caller
// decides whether to retry at a higher level.
type Engine interface {
	// GenerateDistributedKey creates a new threshold key for the wallet,
	// returning the group public key and one sealed share per party.
	// The public key is a deterministic function of the generated share
	// set. Fails with KindInsufficientParties when the party set cannot
	// satisfy the threshold.
	GenerateDistributedKey(ctx context.Context, req *KeygenRequest) (*KeygenResult, error)

	// PartialSign produces one party's signature fragment over the
	// message hash using its sealed share. The fragment is independently
	// verifiable against the share's verification key without any other
	// party's material.
	PartialSign(ctx context.Context, share *types.KeyShare, txID string, messageHash []byte) (*types.PartialSignature, error)

	// CombineSignatures combines at least threshold partial signatures
	// into a single signature that verifies against the group public
	// key. Combination is order-independent: any valid subset of size >=
	// threshold yields a verifying signature. Fails with
	// KindInsufficientSignatures otherwise.
	CombineSignatures(ctx context.Context, req *CombineRequest) ([]byte, error)

	// Verify reports whether signature is a valid group signature over
	// messageHash. Side-effect free.
	Verify(publicKey, messageHash, signature []byte) bool
}

// KeygenRequest describes a distributed key generation run.
type KeygenRequest struct {
	// WalletID scopes the generated shares; shares from different
	// wallets never cross-verify.
	WalletID string

	// PartyIDs are the distinct, enabled parties receiving shares.
	PartyIDs []string

	// Threshold is the minimum number of partial signatures required to
	// combine. Must satisfy 2 <= Threshold <= len(PartyIDs).
	Threshold int
}

// KeygenResult carries the outcome of distributed key generation.
type KeygenResult struct {
	// PublicKey is the group public key the combined signatures verify
	// against.
	PublicKey []byte

	// Shares holds one sealed share per requested party, in PartyIDs
	// order.
	Shares []*types.KeyShare
}

// CombineRequest describes a signature combination.
type CombineRequest struct {
	WalletID    string
	PublicKey   []byte
	MessageHash []byte
	Threshold   int

	// Partials are the collected signature fragments. More than
	// Threshold entries may be supplied; implementations pick any valid
	// subset of size Threshold or larger.
	Partials []types.PartialSignature
}

// ShareSource supplies sealed key shares to engine implementations that
// need them during combination. The share store satisfies this interface;
// the engine is the only consumer able to open the sealed blobs.
type ShareSource interface {
	ListShares(ctx context.Context, walletID string) ([]*types.KeyShare, error)
}
