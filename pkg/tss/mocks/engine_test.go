// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-custody/pkg/tss"
	"github.com/jeremyhahn/go-custody/pkg/types"
)

func keygen(t *testing.T, engine *Engine) *tss.KeygenResult {
	t.Helper()
	result, err := engine.GenerateDistributedKey(context.Background(), &tss.KeygenRequest{
		WalletID:  "wallet-1",
		PartyIDs:  []string{"party-1", "party-2", "party-3"},
		Threshold: 2,
	})
	require.NoError(t, err)
	return result
}

func TestGenerateDistributedKeyDeterministic(t *testing.T) {
	engine := NewEngine()

	first := keygen(t, engine)
	second := keygen(t, engine)

	assert.Equal(t, first.PublicKey, second.PublicKey)
	require.Len(t, first.Shares, 3)
	for i, share := range first.Shares {
		assert.Equal(t, i+1, share.ShareIndex)
		assert.Equal(t, first.PublicKey, share.WalletPublicKey)
		assert.Equal(t, 2, share.Threshold)
		assert.Equal(t, 3, share.TotalShares)
		assert.Equal(t, share.EncryptedShareBlob, second.Shares[i].EncryptedShareBlob)
	}
}

func TestGenerateDistributedKeyValidation(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name string
		req  *tss.KeygenRequest
	}{
		{"threshold too low", &tss.KeygenRequest{
			WalletID: "w", PartyIDs: []string{"a", "b"}, Threshold: 1,
		}},
		{"too few parties", &tss.KeygenRequest{
			WalletID: "w", PartyIDs: []string{"a", "b"}, Threshold: 3,
		}},
		{"duplicate party", &tss.KeygenRequest{
			WalletID: "w", PartyIDs: []string{"a", "a", "b"}, Threshold: 2,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.GenerateDistributedKey(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tss.ErrInsufficientParties)
		})
	}
}

func TestSignCombineVerify(t *testing.T) {
	engine := NewEngine()
	result := keygen(t, engine)
	message := []byte("message-hash")

	partials := make([]types.PartialSignature, 0, 2)
	for _, share := range result.Shares[:2] {
		partial, err := engine.PartialSign(context.Background(), share, "tx-1", message)
		require.NoError(t, err)
		assert.Equal(t, PartialFor(share.WalletID, share.PartyID, message), partial.Signature)
		partials = append(partials, *partial)
	}

	combined, err := engine.CombineSignatures(context.Background(), &tss.CombineRequest{
		WalletID:    "wallet-1",
		PublicKey:   result.PublicKey,
		MessageHash: message,
		Threshold:   2,
		Partials:    partials,
	})
	require.NoError(t, err)
	assert.Equal(t, CombinedFor(result.PublicKey, message), combined)
	assert.True(t, engine.Verify(result.PublicKey, message, combined))
	assert.False(t, engine.Verify(result.PublicKey, []byte("other"), combined))
}

func TestCombineBelowThreshold(t *testing.T) {
	engine := NewEngine()
	result := keygen(t, engine)
	message := []byte("message-hash")

	partial, err := engine.PartialSign(context.Background(), result.Shares[0], "tx-1", message)
	require.NoError(t, err)

	_, err = engine.CombineSignatures(context.Background(), &tss.CombineRequest{
		WalletID:    "wallet-1",
		PublicKey:   result.PublicKey,
		MessageHash: message,
		Threshold:   2,
		Partials:    []types.PartialSignature{*partial},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, tss.ErrInsufficientSignatures)
}

func TestCombineRejectsForgedPartial(t *testing.T) {
	engine := NewEngine()
	result := keygen(t, engine)
	message := []byte("message-hash")

	good, err := engine.PartialSign(context.Background(), result.Shares[0], "tx-1", message)
	require.NoError(t, err)
	forged := &types.PartialSignature{
		PartyID:     "party-2",
		WalletID:    "wallet-1",
		MessageHash: message,
		Signature:   []byte("not-a-real-partial"),
	}

	_, err = engine.CombineSignatures(context.Background(), &tss.CombineRequest{
		WalletID:    "wallet-1",
		PublicKey:   result.PublicKey,
		MessageHash: message,
		Threshold:   2,
		Partials:    []types.PartialSignature{*good, *forged},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, tss.ErrInvalidPartial)
}

func TestFailureSwitches(t *testing.T) {
	engine := NewEngine()
	result := keygen(t, engine)
	message := []byte("message-hash")
	combined := CombinedFor(result.PublicKey, message)

	engine.FailVerify = true
	assert.False(t, engine.Verify(result.PublicKey, message, combined))
	engine.FailVerify = false
	assert.True(t, engine.Verify(result.PublicKey, message, combined))

	engine.FailCombine = true
	_, err := engine.CombineSignatures(context.Background(), &tss.CombineRequest{
		WalletID:    "wallet-1",
		PublicKey:   result.PublicKey,
		MessageHash: message,
		Threshold:   2,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, tss.ErrCombineFailed)
}
