// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

package custody

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-custody/pkg/audit"
	"github.com/jeremyhahn/go-custody/pkg/registry"
	"github.com/jeremyhahn/go-custody/pkg/sharestore"
	"github.com/jeremyhahn/go-custody/pkg/storage"
	"github.com/jeremyhahn/go-custody/pkg/storage/memory"
	"github.com/jeremyhahn/go-custody/pkg/tss/mocks"
	"github.com/jeremyhahn/go-custody/pkg/types"
)

type testEnv struct {
	backend  storage.Backend
	manager  *Manager
	registry *registry.Registry
	shares   *sharestore.Store
	audit    *audit.Log
	engine   *mocks.Engine
	parties  []string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	backend := memory.New()
	t.Cleanup(func() { _ = backend.Close() })

	reg, err := registry.New(backend)
	require.NoError(t, err)
	shares, err := sharestore.New(backend)
	require.NoError(t, err)
	auditLog, err := audit.NewLog(backend)
	require.NoError(t, err)
	engine := mocks.NewEngine()

	manager, err := NewManager(&Config{
		Backend:  backend,
		Registry: reg,
		Shares:   shares,
		Engine:   engine,
		Audit:    auditLog,
	})
	require.NoError(t, err)

	var parties []string
	for i := 0; i < 3; i++ {
		party, err := reg.Register(
			fmt.Sprintf("custodian-%d", i),
			types.RoleSigner,
			fmt.Sprintf("comms-key-%d", i))
		require.NoError(t, err)
		parties = append(parties, party.ID)
	}

	return &testEnv{
		backend:  backend,
		manager:  manager,
		registry: reg,
		shares:   shares,
		audit:    auditLog,
		engine:   engine,
		parties:  parties,
	}
}

func (e *testEnv) createRequest() *CreateWalletRequest {
	return &CreateWalletRequest{
		OwnerUserID: "owner-1",
		ChainID:     1,
		Type:        types.WalletTypeMultisig,
		PartyIDs:    e.parties,
		Threshold:   2,
	}
}

func TestNewManagerValidation(t *testing.T) {
	_, err := NewManager(nil)
	assert.Error(t, err)

	_, err = NewManager(&Config{})
	assert.Error(t, err)
}

func TestCreateWallet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	wallet, err := env.manager.CreateWallet(ctx, env.createRequest())
	require.NoError(t, err)

	assert.Equal(t, types.WalletStatusActive, wallet.Status)
	assert.NotEmpty(t, wallet.PublicKey)
	assert.True(t, strings.HasPrefix(wallet.PublicAddress, "0x"))
	assert.Len(t, wallet.PublicAddress, 42)
	assert.Equal(t, 2, wallet.RequiredSignatures)
	assert.Equal(t, 3, wallet.TotalSigners)

	count, err := env.shares.Count(ctx, wallet.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	entries, err := env.audit.QueryByWallet(ctx, wallet.ID, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionGenerateShares, entries[0].Action)
	assert.Equal(t, audit.ActionCreateWallet, entries[1].Action)
}

func TestCreateWalletValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*CreateWalletRequest)
		wantErr error
	}{
		{
			name:    "missing owner",
			mutate:  func(r *CreateWalletRequest) { r.OwnerUserID = "" },
			wantErr: ErrInvalidWalletRequest,
		},
		{
			name:    "missing chain",
			mutate:  func(r *CreateWalletRequest) { r.ChainID = 0 },
			wantErr: ErrInvalidWalletRequest,
		},
		{
			name:    "unknown type",
			mutate:  func(r *CreateWalletRequest) { r.Type = "vault" },
			wantErr: ErrInvalidWalletRequest,
		},
		{
			name:    "timelock without unlock time",
			mutate:  func(r *CreateWalletRequest) { r.Type = types.WalletTypeTimelock },
			wantErr: ErrInvalidWalletRequest,
		},
		{
			name:    "threshold below two",
			mutate:  func(r *CreateWalletRequest) { r.Threshold = 1 },
			wantErr: ErrInsufficientParties,
		},
		{
			name:    "threshold above party count",
			mutate:  func(r *CreateWalletRequest) { r.Threshold = 4 },
			wantErr: ErrInsufficientParties,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := env.createRequest()
			tt.mutate(req)
			_, err := env.manager.CreateWallet(ctx, req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateWalletUnregisteredParty(t *testing.T) {
	env := newTestEnv(t)

	req := env.createRequest()
	req.PartyIDs = append(req.PartyIDs[:2], "no-such-party")

	_, err := env.manager.CreateWallet(context.Background(), req)
	assert.ErrorIs(t, err, ErrInsufficientParties)
}

func TestCreateWalletRevokedParty(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.registry.Revoke(env.parties[2]))

	_, err := env.manager.CreateWallet(context.Background(), env.createRequest())
	assert.ErrorIs(t, err, ErrInsufficientParties)
}

func TestCreateWalletRetryAfterSuccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := env.createRequest()
	req.WalletID = "wallet-retry"

	first, err := env.manager.CreateWallet(ctx, req)
	require.NoError(t, err)

	// Retrying a completed creation is a conflict naming the wallet so
	// the caller can reconcile; key material is untouched.
	_, err = env.manager.CreateWallet(ctx, req)
	require.ErrorIs(t, err, ErrWalletAlreadyKeyed)
	assert.Contains(t, err.Error(), first.ID)

	got, err := env.manager.GetWallet(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.PublicAddress, got.PublicAddress)
	assert.Equal(t, types.WalletStatusActive, got.Status)

	count, err := env.shares.Count(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestCreateWalletResumesPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// A crash after the wallet record was written but before key
	// generation leaves a pending wallet with no shares. A retry with
	// the same id completes it.
	req := env.createRequest()
	req.WalletID = "wallet-crashed"
	seedPendingWallet(t, env, req)

	wallet, err := env.manager.CreateWallet(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, types.WalletStatusActive, wallet.Status)

	count, err := env.shares.Count(ctx, wallet.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestCreateWalletPartialKeyGenerationConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := env.createRequest()
	req.WalletID = "wallet-conflict"
	seedPendingWallet(t, env, req)

	// One share survived the crashed attempt.
	require.NoError(t, env.shares.Put(ctx, &types.KeyShare{
		ID:                 "orphan-share",
		WalletID:           req.WalletID,
		PartyID:            env.parties[0],
		ShareIndex:         1,
		EncryptedShareBlob: []byte("sealed"),
		VerificationKey:    []byte("verify"),
		WalletPublicKey:    []byte("group"),
		Threshold:          2,
		TotalShares:        3,
	}))

	_, err := env.manager.CreateWallet(ctx, req)
	require.ErrorIs(t, err, ErrPartialKeyGenerationConflict)

	var conflict *PartialKeyGenerationConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, req.WalletID, conflict.WalletID)
	assert.Equal(t, 1, conflict.PersistedShares)
}

func TestCreateTimelockWallet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	unlock := time.Now().Add(time.Hour)
	req := env.createRequest()
	req.Type = types.WalletTypeTimelock
	req.UnlockTime = &unlock

	wallet, err := env.manager.CreateWallet(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, types.WalletStatusLocked, wallet.Status)
}

func TestGetWalletUnlocksElapsedTimelock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	unlock := time.Now().Add(50 * time.Millisecond)
	req := env.createRequest()
	req.Type = types.WalletTypeTimelock
	req.UnlockTime = &unlock

	wallet, err := env.manager.CreateWallet(ctx, req)
	require.NoError(t, err)
	require.Equal(t, types.WalletStatusLocked, wallet.Status)

	time.Sleep(60 * time.Millisecond)

	before, err := env.audit.QueryByWallet(ctx, wallet.ID, time.Time{}, time.Now().Add(time.Hour))
	require.NoError(t, err)

	wallet, err = env.manager.GetWallet(ctx, wallet.ID)
	require.NoError(t, err)
	assert.Equal(t, types.WalletStatusActive, wallet.Status)

	listed, err := env.manager.ListWallets(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, types.WalletStatusActive, listed[0].Status)

	// The unlock is derived at read time: the stored record keeps its
	// locked status and the read leaves no audit trace.
	raw, err := env.backend.Get("wallets/" + wallet.ID)
	require.NoError(t, err)
	var stored types.Wallet
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Equal(t, types.WalletStatusLocked, stored.Status)

	after, err := env.audit.QueryByWallet(ctx, wallet.ID, time.Time{}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, after, len(before))
}

func TestGetWalletNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.manager.GetWallet(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestListWallets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.manager.CreateWallet(ctx, env.createRequest())
	require.NoError(t, err)

	other := env.createRequest()
	other.OwnerUserID = "owner-2"
	_, err = env.manager.CreateWallet(ctx, other)
	require.NoError(t, err)

	all, err := env.manager.ListWallets(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := env.manager.ListWallets(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "owner-1", mine[0].OwnerUserID)
}

func TestRevokeWallet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	wallet, err := env.manager.CreateWallet(ctx, env.createRequest())
	require.NoError(t, err)

	require.NoError(t, env.manager.RevokeWallet(ctx, wallet.ID, "admin"))

	got, err := env.manager.GetWallet(ctx, wallet.ID)
	require.NoError(t, err)
	assert.Equal(t, types.WalletStatusRevoked, got.Status)

	// Shares and audit history survive revocation.
	count, err := env.shares.Count(ctx, wallet.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Revoking again is a no-op.
	require.NoError(t, env.manager.RevokeWallet(ctx, wallet.ID, "admin"))
}

type stubPendingChecker struct {
	open bool
	err  error
}

func (s *stubPendingChecker) HasOpenTransactions(ctx context.Context, walletID string) (bool, error) {
	return s.open, s.err
}

func TestRevokeWalletWithOpenTransactions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	wallet, err := env.manager.CreateWallet(ctx, env.createRequest())
	require.NoError(t, err)

	env.manager.SetPendingChecker(&stubPendingChecker{open: true})
	err = env.manager.RevokeWallet(ctx, wallet.ID, "admin")
	assert.ErrorIs(t, err, ErrWalletHasPendingTransactions)

	got, err := env.manager.GetWallet(ctx, wallet.ID)
	require.NoError(t, err)
	assert.Equal(t, types.WalletStatusActive, got.Status)

	env.manager.SetPendingChecker(&stubPendingChecker{open: false})
	require.NoError(t, env.manager.RevokeWallet(ctx, wallet.ID, "admin"))
}

type failingAudit struct {
	inner     audit.Logger
	failAfter int
	appended  int
}

func (f *failingAudit) Append(ctx context.Context, entry *types.AccessLogEntry) error {
	if f.appended >= f.failAfter {
		return errors.New("audit store unavailable")
	}
	f.appended++
	return f.inner.Append(ctx, entry)
}

func (f *failingAudit) QueryByWallet(ctx context.Context, walletID string, from, to time.Time) ([]*types.AccessLogEntry, error) {
	return f.inner.QueryByWallet(ctx, walletID, from, to)
}

func TestCreateWalletAuditFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Key generation is audited, wallet activation is not.
	flaky := &failingAudit{inner: env.audit, failAfter: 1}
	manager, err := NewManager(&Config{
		Backend:  env.backend,
		Registry: env.registry,
		Shares:   env.shares,
		Engine:   env.engine,
		Audit:    flaky,
	})
	require.NoError(t, err)

	req := env.createRequest()
	req.WalletID = "wallet-audit-fail"
	_, err = manager.CreateWallet(ctx, req)
	require.Error(t, err)

	got, gerr := manager.GetWallet(ctx, req.WalletID)
	require.NoError(t, gerr)
	assert.Equal(t, types.WalletStatusPending, got.Status)
	assert.Empty(t, got.PublicKey)
}

// seedPendingWallet writes the pending wallet record a crashed creation
// attempt would have left behind.
func seedPendingWallet(t *testing.T, env *testEnv, req *CreateWalletRequest) {
	t.Helper()
	wallet := &types.Wallet{
		ID:                 req.WalletID,
		OwnerUserID:        req.OwnerUserID,
		ChainID:            req.ChainID,
		Type:               req.Type,
		Status:             types.WalletStatusPending,
		RequiredSignatures: req.Threshold,
		TotalSigners:       len(req.PartyIDs),
		SignerPartyIDs:     req.PartyIDs,
		CreatedAt:          time.Now().UTC(),
	}
	data, err := json.Marshal(wallet)
	require.NoError(t, err)
	require.NoError(t, env.backend.PutIfAbsent(walletPrefix+req.WalletID, data, nil))
}
