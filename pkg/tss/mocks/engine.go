// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

// Package mocks provides a deterministic tss.Engine for tests. Signatures
// are SHA-256 digests derived from the wallet, message and party, so every
// run of a test produces identical key material and outcomes can be forced
// with the failure switches.
package mocks

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jeremyhahn/go-custody/pkg/tss"
	"github.com/jeremyhahn/go-custody/pkg/types"
)

// Engine is a deterministic, hash-based tss.Engine implementation.
type Engine struct {
	// FailCombine forces CombineSignatures to return a combine failure.
	FailCombine bool

	// FailVerify forces Verify to report false.
	FailVerify bool
}

var _ tss.Engine = (*Engine)(nil)

// NewEngine creates a deterministic mock engine.
func NewEngine() *Engine {
	return &Engine{}
}

// GenerateDistributedKey derives the group public key from the wallet id
// and the sorted party set, so repeated invocations with the same inputs
// yield identical keys.
func (e *Engine) GenerateDistributedKey(ctx context.Context, req *tss.KeygenRequest) (*tss.KeygenResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, tss.WrapError(tss.KindInternal, "keygen cancelled", err)
	}

	if req.Threshold < 2 {
		return nil, tss.NewError(tss.KindInsufficientParties,
			fmt.Sprintf("threshold must be at least 2, got %d", req.Threshold))
	}
	if len(req.PartyIDs) < req.Threshold {
		return nil, tss.NewError(tss.KindInsufficientParties,
			fmt.Sprintf("need at least %d parties, got %d", req.Threshold, len(req.PartyIDs)))
	}
	seen := make(map[string]struct{}, len(req.PartyIDs))
	for _, id := range req.PartyIDs {
		if _, dup := seen[id]; dup {
			return nil, tss.NewError(tss.KindInsufficientParties, fmt.Sprintf("duplicate party %s", id))
		}
		seen[id] = struct{}{}
	}

	sorted := append([]string(nil), req.PartyIDs...)
	sort.Strings(sorted)
	publicKey := digest("group", req.WalletID, strings.Join(sorted, ","))

	now := time.Now().UTC()
	shares := make([]*types.KeyShare, 0, len(req.PartyIDs))
	for i, partyID := range req.PartyIDs {
		shares = append(shares, &types.KeyShare{
			ID:                 uuid.New().String(),
			WalletID:           req.WalletID,
			PartyID:            partyID,
			ShareIndex:         i + 1,
			EncryptedShareBlob: digest("share", req.WalletID, partyID),
			VerificationKey:    digest("verify", req.WalletID, partyID),
			WalletPublicKey:    publicKey,
			Threshold:          req.Threshold,
			TotalShares:        len(req.PartyIDs),
			CreatedAt:          now,
		})
	}

	return &tss.KeygenResult{PublicKey: publicKey, Shares: shares}, nil
}

// PartialSign derives the partial deterministically from the share and
// message hash.
func (e *Engine) PartialSign(ctx context.Context, share *types.KeyShare, txID string, messageHash []byte) (*types.PartialSignature, error) {
	if err := ctx.Err(); err != nil {
		return nil, tss.WrapError(tss.KindInternal, "partial sign cancelled", err)
	}
	if share == nil {
		return nil, tss.NewError(tss.KindInvalidShare, "share is nil")
	}

	return &types.PartialSignature{
		PartyID:     share.PartyID,
		TxID:        txID,
		WalletID:    share.WalletID,
		MessageHash: messageHash,
		Signature:   PartialFor(share.WalletID, share.PartyID, messageHash),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// CombineSignatures checks each partial against its deterministic expected
// value and returns the deterministic combined signature.
func (e *Engine) CombineSignatures(ctx context.Context, req *tss.CombineRequest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, tss.WrapError(tss.KindInternal, "combine cancelled", err)
	}
	if e.FailCombine {
		return nil, tss.NewError(tss.KindCombineFailed, "forced combine failure")
	}

	distinct := make(map[string]struct{}, len(req.Partials))
	for _, partial := range req.Partials {
		if !bytes.Equal(partial.MessageHash, req.MessageHash) {
			return nil, tss.NewError(tss.KindMessageMismatch,
				fmt.Sprintf("partial from party %s signs a different message", partial.PartyID))
		}
		expected := PartialFor(req.WalletID, partial.PartyID, req.MessageHash)
		if !bytes.Equal(partial.Signature, expected) {
			return nil, tss.NewError(tss.KindInvalidPartial,
				fmt.Sprintf("partial from party %s failed verification", partial.PartyID))
		}
		distinct[partial.PartyID] = struct{}{}
	}

	if len(distinct) < req.Threshold {
		return nil, tss.NewError(tss.KindInsufficientSignatures,
			fmt.Sprintf("have %d distinct signers, need %d", len(distinct), req.Threshold))
	}

	return CombinedFor(req.PublicKey, req.MessageHash), nil
}

// Verify recomputes the deterministic combined signature.
func (e *Engine) Verify(publicKey, messageHash, signature []byte) bool {
	if e.FailVerify {
		return false
	}
	return bytes.Equal(signature, CombinedFor(publicKey, messageHash))
}

// PartialFor returns the deterministic partial signature the mock engine
// produces for the given wallet, party and message.
func PartialFor(walletID, partyID string, messageHash []byte) []byte {
	return digest("partial", walletID, partyID+":"+string(messageHash))
}

// CombinedFor returns the deterministic combined signature for a public
// key and message.
func CombinedFor(publicKey, messageHash []byte) []byte {
	sum := sha256.Sum256(append(append([]byte("combined:"), publicKey...), messageHash...))
	return sum[:]
}

func digest(kind, walletID, rest string) []byte {
	sum := sha256.Sum256([]byte(kind + ":" + walletID + ":" + rest))
	return sum[:]
}
