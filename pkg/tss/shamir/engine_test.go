// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

package shamir

import (
	"context"
	"crypto/sha256"
	"testing"

	"github.com/jeremyhahn/go-custody/pkg/tss"
	"github.com/jeremyhahn/go-custody/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapShareSource is a tss.ShareSource over a map, keyed by wallet id.
type mapShareSource struct {
	shares map[string][]*types.KeyShare
}

func (m *mapShareSource) ListShares(ctx context.Context, walletID string) ([]*types.KeyShare, error) {
	return m.shares[walletID], nil
}

func (m *mapShareSource) add(result *tss.KeygenResult) {
	if m.shares == nil {
		m.shares = make(map[string][]*types.KeyShare)
	}
	for _, share := range result.Shares {
		m.shares[share.WalletID] = append(m.shares[share.WalletID], share)
	}
}

func newTestEngine(t *testing.T) (*Engine, *mapShareSource) {
	t.Helper()
	source := &mapShareSource{}
	engine, err := NewEngine(&Config{
		KEK:    []byte("0123456789abcdef0123456789abcdef"),
		Shares: source,
	})
	require.NoError(t, err)
	return engine, source
}

func hashMessage(s string) []byte {
	sum := sha256.Sum256([]byte(s))
	return sum[:]
}

func TestNewEngineConfig(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{"nil config", nil},
		{"short KEK", &Config{KEK: []byte("short"), Shares: &mapShareSource{}}},
		{"missing share source", &Config{KEK: []byte("0123456789abcdef0123456789abcdef")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(tt.config)
			require.Error(t, err)
		})
	}
}

func TestGenerateDistributedKey(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	result, err := engine.GenerateDistributedKey(ctx, &tss.KeygenRequest{
		WalletID:  "w1",
		PartyIDs:  []string{"a", "b", "c"},
		Threshold: 2,
	})
	require.NoError(t, err)
	require.Len(t, result.Shares, 3)
	assert.Len(t, result.PublicKey, 32)

	for i, share := range result.Shares {
		require.NoError(t, share.Validate())
		assert.Equal(t, i+1, share.ShareIndex)
		assert.Equal(t, 2, share.Threshold)
		assert.Equal(t, 3, share.TotalShares)
		assert.Equal(t, result.PublicKey, []byte(share.WalletPublicKey))
		assert.NotEmpty(t, share.VerificationKey)
	}
}

func TestGenerateDistributedKeyPreconditions(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		parties   []string
		threshold int
	}{
		{"threshold below 2", []string{"a", "b"}, 1},
		{"fewer parties than threshold", []string{"a", "b"}, 3},
		{"duplicate parties", []string{"a", "a", "b"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.GenerateDistributedKey(ctx, &tss.KeygenRequest{
				WalletID:  "w1",
				PartyIDs:  tt.parties,
				Threshold: tt.threshold,
			})
			assert.ErrorIs(t, err, tss.ErrInsufficientParties)
		})
	}
}

func TestPartialSignVerifiesAgainstVerificationKey(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	result, err := engine.GenerateDistributedKey(ctx, &tss.KeygenRequest{
		WalletID:  "w1",
		PartyIDs:  []string{"a", "b", "c"},
		Threshold: 2,
	})
	require.NoError(t, err)

	hash := hashMessage("transfer 10 ETH")
	partial, err := engine.PartialSign(ctx, result.Shares[0], "tx1", hash)
	require.NoError(t, err)
	assert.Equal(t, "a", partial.PartyID)
	assert.Equal(t, "tx1", partial.TxID)
	assert.Equal(t, hash, partial.MessageHash)
	assert.NotEmpty(t, partial.Signature)
}

func TestPartialSignRejectsTamperedShare(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	result, err := engine.GenerateDistributedKey(ctx, &tss.KeygenRequest{
		WalletID:  "w1",
		PartyIDs:  []string{"a", "b", "c"},
		Threshold: 2,
	})
	require.NoError(t, err)

	tampered := *result.Shares[0]
	tampered.EncryptedShareBlob = append([]byte(nil), tampered.EncryptedShareBlob...)
	tampered.EncryptedShareBlob[len(tampered.EncryptedShareBlob)-1] ^= 0xFF

	_, err = engine.PartialSign(ctx, &tampered, "tx1", hashMessage("m"))
	assert.ErrorIs(t, err, tss.ErrInvalidShare)
}

func TestCombineAnyQuorumSubset(t *testing.T) {
	engine, source := newTestEngine(t)
	ctx := context.Background()

	result, err := engine.GenerateDistributedKey(ctx, &tss.KeygenRequest{
		WalletID:  "w1",
		PartyIDs:  []string{"a", "b", "c"},
		Threshold: 2,
	})
	require.NoError(t, err)
	source.add(result)

	hash := hashMessage("transfer")
	partials := make([]types.PartialSignature, 0, 3)
	for _, share := range result.Shares {
		partial, err := engine.PartialSign(ctx, share, "tx1", hash)
		require.NoError(t, err)
		partials = append(partials, *partial)
	}

	// Every 2-subset combines to a signature that verifies.
	subsets := [][]types.PartialSignature{
		{partials[0], partials[1]},
		{partials[1], partials[2]},
		{partials[2], partials[0]}, // reversed arrival order
	}
	for _, subset := range subsets {
		signature, err := engine.CombineSignatures(ctx, &tss.CombineRequest{
			WalletID:    "w1",
			PublicKey:   result.PublicKey,
			MessageHash: hash,
			Threshold:   2,
			Partials:    subset,
		})
		require.NoError(t, err)
		assert.True(t, engine.Verify(result.PublicKey, hash, signature))
	}

	// All three partials also combine.
	signature, err := engine.CombineSignatures(ctx, &tss.CombineRequest{
		WalletID:    "w1",
		PublicKey:   result.PublicKey,
		MessageHash: hash,
		Threshold:   2,
		Partials:    partials,
	})
	require.NoError(t, err)
	assert.True(t, engine.Verify(result.PublicKey, hash, signature))
}

func TestCombineBelowThreshold(t *testing.T) {
	engine, source := newTestEngine(t)
	ctx := context.Background()

	result, err := engine.GenerateDistributedKey(ctx, &tss.KeygenRequest{
		WalletID:  "w1",
		PartyIDs:  []string{"a", "b", "c"},
		Threshold: 3,
	})
	require.NoError(t, err)
	source.add(result)

	hash := hashMessage("transfer")
	p0, err := engine.PartialSign(ctx, result.Shares[0], "tx1", hash)
	require.NoError(t, err)
	p1, err := engine.PartialSign(ctx, result.Shares[1], "tx1", hash)
	require.NoError(t, err)

	_, err = engine.CombineSignatures(ctx, &tss.CombineRequest{
		WalletID:    "w1",
		PublicKey:   result.PublicKey,
		MessageHash: hash,
		Threshold:   3,
		Partials:    []types.PartialSignature{*p0, *p1},
	})
	assert.ErrorIs(t, err, tss.ErrInsufficientSignatures)

	// Duplicate submissions from one party do not count twice.
	_, err = engine.CombineSignatures(ctx, &tss.CombineRequest{
		WalletID:    "w1",
		PublicKey:   result.PublicKey,
		MessageHash: hash,
		Threshold:   3,
		Partials:    []types.PartialSignature{*p0, *p0, *p1},
	})
	assert.ErrorIs(t, err, tss.ErrInsufficientSignatures)
}

func TestCombineMessageMismatch(t *testing.T) {
	engine, source := newTestEngine(t)
	ctx := context.Background()

	result, err := engine.GenerateDistributedKey(ctx, &tss.KeygenRequest{
		WalletID:  "w1",
		PartyIDs:  []string{"a", "b"},
		Threshold: 2,
	})
	require.NoError(t, err)
	source.add(result)

	p0, err := engine.PartialSign(ctx, result.Shares[0], "tx1", hashMessage("one"))
	require.NoError(t, err)
	p1, err := engine.PartialSign(ctx, result.Shares[1], "tx1", hashMessage("two"))
	require.NoError(t, err)

	_, err = engine.CombineSignatures(ctx, &tss.CombineRequest{
		WalletID:    "w1",
		PublicKey:   result.PublicKey,
		MessageHash: hashMessage("one"),
		Threshold:   2,
		Partials:    []types.PartialSignature{*p0, *p1},
	})
	assert.ErrorIs(t, err, tss.ErrMessageMismatch)
}

func TestSharesDoNotCrossVerifyAcrossWallets(t *testing.T) {
	engine, source := newTestEngine(t)
	ctx := context.Background()

	first, err := engine.GenerateDistributedKey(ctx, &tss.KeygenRequest{
		WalletID:  "w1",
		PartyIDs:  []string{"a", "b"},
		Threshold: 2,
	})
	require.NoError(t, err)
	source.add(first)

	second, err := engine.GenerateDistributedKey(ctx, &tss.KeygenRequest{
		WalletID:  "w2",
		PartyIDs:  []string{"a", "b"},
		Threshold: 2,
	})
	require.NoError(t, err)
	source.add(second)

	assert.NotEqual(t, first.PublicKey, second.PublicKey)

	hash := hashMessage("transfer")
	p0, err := engine.PartialSign(ctx, second.Shares[0], "tx1", hash)
	require.NoError(t, err)
	p1, err := engine.PartialSign(ctx, second.Shares[1], "tx1", hash)
	require.NoError(t, err)

	// Partials produced under wallet w2 cannot combine for wallet w1.
	_, err = engine.CombineSignatures(ctx, &tss.CombineRequest{
		WalletID:    "w1",
		PublicKey:   first.PublicKey,
		MessageHash: hash,
		Threshold:   2,
		Partials:    []types.PartialSignature{*p0, *p1},
	})
	assert.ErrorIs(t, err, tss.ErrInvalidPartial)
}

func TestCombineRejectsForgedPartial(t *testing.T) {
	engine, source := newTestEngine(t)
	ctx := context.Background()

	result, err := engine.GenerateDistributedKey(ctx, &tss.KeygenRequest{
		WalletID:  "w1",
		PartyIDs:  []string{"a", "b"},
		Threshold: 2,
	})
	require.NoError(t, err)
	source.add(result)

	hash := hashMessage("transfer")
	p0, err := engine.PartialSign(ctx, result.Shares[0], "tx1", hash)
	require.NoError(t, err)

	forged := *p0
	forged.PartyID = "b"

	_, err = engine.CombineSignatures(ctx, &tss.CombineRequest{
		WalletID:    "w1",
		PublicKey:   result.PublicKey,
		MessageHash: hash,
		Threshold:   2,
		Partials:    []types.PartialSignature{*p0, forged},
	})
	assert.ErrorIs(t, err, tss.ErrInvalidPartial)
}

func TestVerifyRejectsMalformedInput(t *testing.T) {
	engine, _ := newTestEngine(t)

	assert.False(t, engine.Verify(nil, hashMessage("m"), nil))
	assert.False(t, engine.Verify(make([]byte, 32), hashMessage("m"), make([]byte, 10)))
}
