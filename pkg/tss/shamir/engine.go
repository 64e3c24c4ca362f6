// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

package shamir

import (
	"bytes"
	"context"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jeremyhahn/go-custody/pkg/tss"
	"github.com/jeremyhahn/go-custody/pkg/types"
	"golang.org/x/crypto/hkdf"
)

// Config contains configuration for the Shamir threshold engine.
type Config struct {
	// KEK is the key-encryption key sealing share blobs at rest.
	// Must be at least 16 bytes of high-entropy material.
	KEK []byte

	// Shares supplies sealed shares during combination. Required.
	Shares tss.ShareSource
}

// Validate checks the engine configuration.
func (c *Config) Validate() error {
	if len(c.KEK) < 16 {
		return fmt.Errorf("shamir: KEK must be at least 16 bytes")
	}
	if c.Shares == nil {
		return fmt.Errorf("shamir: share source is required")
	}
	return nil
}

// Engine implements tss.Engine using Shamir Secret Sharing over Ed25519.
type Engine struct {
	config *Config
	aead   cipher.AEAD
}

// compile-time contract check
var _ tss.Engine = (*Engine)(nil)

// NewEngine creates a Shamir threshold engine.
func NewEngine(config *Config) (*Engine, error) {
	if config == nil {
		return nil, fmt.Errorf("shamir: config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	aead, err := newAEAD(config.KEK)
	if err != nil {
		return nil, fmt.Errorf("shamir: %w", err)
	}

	return &Engine{config: config, aead: aead}, nil
}

// GenerateDistributedKey generates an Ed25519 group key, splits its seed
// into one fragment per party, and seals each fragment into an opaque share
// blob. The group public key is a deterministic function of the fragments.
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
			return nil, tss.NewError(tss.KindInsufficientParties,
				fmt.Sprintf("duplicate party %s", id))
		}
		seen[id] = struct{}{}
	}

	seed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(rand.Reader, seed); err != nil {
		return nil, tss.WrapError(tss.KindInternal, "failed to generate group seed", err)
	}
	groupKey := ed25519.NewKeyFromSeed(seed)
	groupPublic := groupKey.Public().(ed25519.PublicKey)

	fragments, err := split(seed, req.Threshold, len(req.PartyIDs))
	if err != nil {
		return nil, tss.WrapError(tss.KindInternal, "failed to split group seed", err)
	}

	now := time.Now().UTC()
	shares := make([]*types.KeyShare, 0, len(req.PartyIDs))
	for i, partyID := range req.PartyIDs {
		partyKey, err := derivePartyKey(req.WalletID, partyID, fragments[i])
		if err != nil {
			return nil, tss.WrapError(tss.KindInternal, "failed to derive party key", err)
		}

		blob, err := seal(e.aead, &sharePayload{
			WalletID:   req.WalletID,
			PartyID:    partyID,
			ShareIndex: i + 1,
			Fragment:   fragments[i],
		})
		if err != nil {
			return nil, tss.WrapError(tss.KindInternal, "failed to seal share", err)
		}

		shares = append(shares, &types.KeyShare{
			ID:                 uuid.New().String(),
			WalletID:           req.WalletID,
			PartyID:            partyID,
			ShareIndex:         i + 1,
			EncryptedShareBlob: blob,
			VerificationKey:    partyKey.Public().(ed25519.PublicKey),
			WalletPublicKey:    groupPublic,
			Threshold:          req.Threshold,
			TotalShares:        len(req.PartyIDs),
			CreatedAt:          now,
		})
	}

	return &tss.KeygenResult{
		PublicKey: groupPublic,
		Shares:    shares,
	}, nil
}

// PartialSign opens the party's sealed share and signs the message hash
// with the fragment-derived party key. The resulting fragment verifies
// against the share's published verification key.
func (e *Engine) PartialSign(ctx context.Context, share *types.KeyShare, txID string, messageHash []byte) (*types.PartialSignature, error) {
	if err := ctx.Err(); err != nil {
		return nil, tss.WrapError(tss.KindInternal, "partial sign cancelled", err)
	}
	if share == nil {
		return nil, tss.NewError(tss.KindInvalidShare, "share is nil")
	}
	if len(messageHash) == 0 {
		return nil, tss.NewError(tss.KindInternal, "message hash is empty")
	}

	payload, err := open(e.aead, share.WalletID, share.EncryptedShareBlob)
	if err != nil {
		return nil, tss.WrapError(tss.KindInvalidShare,
			fmt.Sprintf("share for party %s", share.PartyID), err)
	}
	if payload.PartyID != share.PartyID || payload.WalletID != share.WalletID {
		return nil, tss.NewError(tss.KindInvalidShare,
			fmt.Sprintf("share payload does not match record for party %s", share.PartyID))
	}

	partyKey, err := derivePartyKey(share.WalletID, share.PartyID, payload.Fragment)
	if err != nil {
		return nil, tss.WrapError(tss.KindInternal, "failed to derive party key", err)
	}
	if !bytes.Equal(partyKey.Public().(ed25519.PublicKey), share.VerificationKey) {
		return nil, tss.NewError(tss.KindInvalidShare,
			fmt.Sprintf("verification key mismatch for party %s", share.PartyID))
	}

	return &types.PartialSignature{
		PartyID:     share.PartyID,
		TxID:        txID,
		WalletID:    share.WalletID,
		MessageHash: messageHash,
		Signature:   ed25519.Sign(partyKey, messageHash),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// CombineSignatures verifies each partial against its party's verification
// key, reconstructs the group seed from the contributing parties' fragments
// and produces the group signature. Any valid subset of at least threshold
// partials yields the same verifying signature regardless of order.
func (e *Engine) CombineSignatures(ctx context.Context, req *tss.CombineRequest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, tss.WrapError(tss.KindInternal, "combine cancelled", err)
	}

	if len(req.Partials) < req.Threshold {
		return nil, tss.NewError(tss.KindInsufficientSignatures,
			fmt.Sprintf("have %d partial signatures, need %d", len(req.Partials), req.Threshold))
	}

	for _, partial := range req.Partials {
		if !bytes.Equal(partial.MessageHash, req.MessageHash) {
			return nil, tss.NewError(tss.KindMessageMismatch,
				fmt.Sprintf("partial from party %s signs a different message", partial.PartyID))
		}
	}

	shares, err := e.config.Shares.ListShares(ctx, req.WalletID)
	if err != nil {
		return nil, tss.WrapError(tss.KindInternal, "failed to load shares", err)
	}
	byParty := make(map[string]*types.KeyShare, len(shares))
	for _, share := range shares {
		byParty[share.PartyID] = share
	}

	// Verify partials and collect fragments from distinct contributors.
	fragments := make([]string, 0, len(req.Partials))
	contributed := make(map[string]struct{}, len(req.Partials))
	for _, partial := range req.Partials {
		if _, dup := contributed[partial.PartyID]; dup {
			continue
		}

		share, ok := byParty[partial.PartyID]
		if !ok {
			return nil, tss.NewError(tss.KindInvalidPartial,
				fmt.Sprintf("party %s holds no share for wallet %s", partial.PartyID, req.WalletID))
		}
		if !ed25519.Verify(share.VerificationKey, req.MessageHash, partial.Signature) {
			return nil, tss.NewError(tss.KindInvalidPartial,
				fmt.Sprintf("partial from party %s failed verification", partial.PartyID))
		}

		payload, err := open(e.aead, share.WalletID, share.EncryptedShareBlob)
		if err != nil {
			return nil, tss.WrapError(tss.KindInvalidShare,
				fmt.Sprintf("share for party %s", partial.PartyID), err)
		}

		contributed[partial.PartyID] = struct{}{}
		fragments = append(fragments, payload.Fragment)
	}

	if len(fragments) < req.Threshold {
		return nil, tss.NewError(tss.KindInsufficientSignatures,
			fmt.Sprintf("have %d distinct signers, need %d", len(fragments), req.Threshold))
	}

	seed, err := combine(fragments)
	if err != nil {
		return nil, tss.WrapError(tss.KindCombineFailed, "failed to reconstruct group seed", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, tss.NewError(tss.KindCombineFailed, "reconstructed seed has wrong size")
	}

	groupKey := ed25519.NewKeyFromSeed(seed)
	if !bytes.Equal(groupKey.Public().(ed25519.PublicKey), req.PublicKey) {
		return nil, tss.NewError(tss.KindCombineFailed,
			"reconstructed key does not match wallet public key")
	}

	signature := ed25519.Sign(groupKey, req.MessageHash)
	if !ed25519.Verify(req.PublicKey, req.MessageHash, signature) {
		return nil, tss.NewError(tss.KindCombineFailed, "combined signature failed verification")
	}

	return signature, nil
}

// Verify reports whether signature is a valid group signature over
// messageHash.
func (e *Engine) Verify(publicKey, messageHash, signature []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize || len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(publicKey, messageHash, signature)
}

// derivePartyKey derives a party's Ed25519 signing key from its fragment,
// bound to the wallet and party identifiers.
func derivePartyKey(walletID, partyID, fragment string) (ed25519.PrivateKey, error) {
	info := []byte("go-custody/v1/partial-key/" + partyID)
	reader := hkdf.New(sha256.New, []byte(fragment), []byte(walletID), info)

	seed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(reader, seed); err != nil {
		return nil, fmt.Errorf("failed to derive party seed: %w", err)
	}

	return ed25519.NewKeyFromSeed(seed), nil
}
