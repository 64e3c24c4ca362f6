// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

// Package custody implements the wallet custody manager: wallet
// lifecycle, distributed key generation, and share persistence.
//
// Wallet creation is decomposed into independently retryable steps
// keyed by wallet id. A retry after a crash either resumes a pending
// wallet with no persisted shares or fails with
// ErrPartialKeyGenerationConflict when shares from an earlier attempt
// already exist; it never silently regenerates key material.
package custody

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"

	"github.com/jeremyhahn/go-custody/pkg/audit"
	"github.com/jeremyhahn/go-custody/pkg/logging"
	"github.com/jeremyhahn/go-custody/pkg/metrics"
	"github.com/jeremyhahn/go-custody/pkg/registry"
	"github.com/jeremyhahn/go-custody/pkg/sharestore"
	"github.com/jeremyhahn/go-custody/pkg/storage"
	"github.com/jeremyhahn/go-custody/pkg/tss"
	"github.com/jeremyhahn/go-custody/pkg/types"
)

const walletPrefix = "wallets/"

// PendingChecker reports whether a wallet has open transactions. The
// transaction workflow satisfies this; it is wired after construction
// to keep the two packages independent.
type PendingChecker interface {
	HasOpenTransactions(ctx context.Context, walletID string) (bool, error)
}

// Config holds the dependencies for the custody manager.
type Config struct {
	// Backend stores wallet records.
	Backend storage.Backend

	// Registry resolves and validates signing parties.
	Registry *registry.Registry

	// Shares persists sealed key shares.
	Shares *sharestore.Store

	// Engine performs distributed key generation.
	Engine tss.Engine

	// Audit records every custody mutation.
	Audit audit.Logger

	// Logger for operational logging. Defaults to the package default.
	Logger *logging.Logger
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("custody: config is required")
	}
	if c.Backend == nil {
		return fmt.Errorf("custody: storage backend is required")
	}
	if c.Registry == nil {
		return fmt.Errorf("custody: party registry is required")
	}
	if c.Shares == nil {
		return fmt.Errorf("custody: share store is required")
	}
	if c.Engine == nil {
		return fmt.Errorf("custody: crypto engine is required")
	}
	if c.Audit == nil {
		return fmt.Errorf("custody: audit logger is required")
	}
	return nil
}

// Manager is the wallet custody manager.
type Manager struct {
	backend  storage.Backend
	registry *registry.Registry
	shares   *sharestore.Store
	engine   tss.Engine
	audit    audit.Logger
	logger   *logging.Logger

	mu      sync.Mutex
	pending PendingChecker
}

// NewManager creates a custody manager from the given configuration.
func NewManager(config *Config) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Manager{
		backend:  config.Backend,
		registry: config.Registry,
		shares:   config.Shares,
		engine:   config.Engine,
		audit:    config.Audit,
		logger:   logger,
	}, nil
}

// SetPendingChecker wires the transaction workflow in after both
// components are constructed.
func (m *Manager) SetPendingChecker(pc PendingChecker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = pc
}

func (m *Manager) pendingChecker() PendingChecker {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// CreateWalletRequest describes a new custody wallet.
type CreateWalletRequest struct {
	// WalletID is optional. Supplying the id from a previous attempt
	// makes the call a safe retry of that attempt.
	WalletID string

	OwnerUserID string
	ChainID     int64
	Type        types.WalletType

	// PartyIDs are the signing parties. All must be registered,
	// enabled, and distinct.
	PartyIDs []string

	// Threshold is the number of signatures required to release funds.
	Threshold int

	// UnlockTime applies to timelock wallets.
	UnlockTime *time.Time

	Label       string
	Description string
	Config      map[string]string
}

func (r *CreateWalletRequest) validate() error {
	if r.OwnerUserID == "" {
		return fmt.Errorf("%w: owner user id is required", ErrInvalidWalletRequest)
	}
	if r.ChainID <= 0 {
		return fmt.Errorf("%w: chain id is required", ErrInvalidWalletRequest)
	}
	switch r.Type {
	case types.WalletTypeMultisig, types.WalletTypeTimelock, types.WalletTypeStandard:
	case "":
		return fmt.Errorf("%w: wallet type is required", ErrInvalidWalletRequest)
	default:
		return fmt.Errorf("%w: unknown wallet type %q", ErrInvalidWalletRequest, r.Type)
	}
	if r.Type == types.WalletTypeTimelock && (r.UnlockTime == nil || r.UnlockTime.IsZero()) {
		return fmt.Errorf("%w: timelock wallets require an unlock time", ErrInvalidWalletRequest)
	}
	if r.Threshold < 2 {
		return fmt.Errorf("%w: threshold must be at least 2, got %d",
			ErrInsufficientParties, r.Threshold)
	}
	if len(r.PartyIDs) < r.Threshold {
		return fmt.Errorf("%w: %d parties cannot satisfy threshold %d",
			ErrInsufficientParties, len(r.PartyIDs), r.Threshold)
	}
	return nil
}

// CreateWallet creates a wallet, runs distributed key generation across
// the signing parties, and persists the sealed shares. The wallet is
// persisted in status pending before key generation and promoted to
// active (or locked, for an unelapsed timelock) only after every share
// is durable.
func (m *Manager) CreateWallet(ctx context.Context, req *CreateWalletRequest) (wallet *types.Wallet, err error) {
	started := time.Now()
	defer func() { metrics.RecordOperation(metrics.OpCreateWallet, started, err) }()

	if req == nil {
		return nil, fmt.Errorf("%w: request is required", ErrInvalidWalletRequest)
	}
	if err = req.validate(); err != nil {
		return nil, err
	}

	parties, err := m.registry.ResolveEnabled(req.PartyIDs)
	if err != nil {
		if errors.Is(err, registry.ErrPartyNotFound) || errors.Is(err, registry.ErrInvalidParty) {
			return nil, fmt.Errorf("%w: %v", ErrInsufficientParties, err)
		}
		return nil, err
	}

	wallet, resume, err := m.claimWallet(ctx, req)
	if err != nil {
		return nil, err
	}
	switch wallet.Status {
	case types.WalletStatusActive, types.WalletStatusLocked:
		// Creation already completed; the conflict carries the wallet id
		// so the caller can reconcile via GetWallet.
		return nil, fmt.Errorf("%w: wallet %s", ErrWalletAlreadyKeyed, wallet.ID)
	case types.WalletStatusRevoked:
		return nil, fmt.Errorf("%w: wallet %s is revoked", ErrInvalidWalletRequest, wallet.ID)
	}
	if resume {
		count, cerr := m.shares.Count(ctx, wallet.ID)
		if cerr != nil {
			return nil, cerr
		}
		if count > 0 {
			return nil, &PartialKeyGenerationConflictError{
				WalletID:        wallet.ID,
				PersistedShares: count,
			}
		}
		m.logger.Info("resuming pending wallet creation", "wallet_id", wallet.ID)
	}

	result, err := m.engine.GenerateDistributedKey(ctx, &tss.KeygenRequest{
		WalletID:  wallet.ID,
		PartyIDs:  partyIDs(parties),
		Threshold: req.Threshold,
	})
	if err != nil {
		if errors.Is(err, tss.ErrInsufficientParties) {
			return nil, fmt.Errorf("%w: %v", ErrInsufficientParties, err)
		}
		return nil, fmt.Errorf("custody: distributed key generation failed: %w", err)
	}

	for _, share := range result.Shares {
		if err = m.shares.Put(ctx, share); err != nil {
			// A duplicate here means a concurrent attempt won the
			// race for this share; the wallet is now conflicted.
			if errors.Is(err, sharestore.ErrDuplicateShare) {
				return nil, &PartialKeyGenerationConflictError{WalletID: wallet.ID, PersistedShares: 1}
			}
			return nil, fmt.Errorf("custody: persisting share for party %s: %w", share.PartyID, err)
		}
	}
	if err = m.audit.Append(ctx, audit.Entry(wallet.ID, req.OwnerUserID,
		audit.ActionGenerateShares, audit.ResourceKeyShare, wallet.ID)); err != nil {
		return nil, fmt.Errorf("custody: recording share generation: %w", err)
	}

	wallet.PublicKey = result.PublicKey
	wallet.PublicAddress = deriveAddress(result.PublicKey)
	wallet.Status = types.WalletStatusActive
	if wallet.Type == types.WalletTypeTimelock && wallet.Locked(time.Now()) {
		wallet.Status = types.WalletStatusLocked
	}
	if err = m.putWallet(ctx, wallet); err != nil {
		return nil, err
	}

	entry := audit.Entry(wallet.ID, req.OwnerUserID, audit.ActionCreateWallet, audit.ResourceWallet, wallet.ID)
	if err = m.audit.Append(ctx, entry); err != nil {
		// The audit trail is load bearing: an unrecorded wallet must
		// not exist. Roll the activation back and surface the failure.
		wallet.Status = types.WalletStatusPending
		wallet.PublicKey = nil
		wallet.PublicAddress = ""
		if rerr := m.putWallet(ctx, wallet); rerr != nil {
			m.logger.Error("rollback after audit failure", "wallet_id", wallet.ID, "error", rerr)
		}
		return nil, fmt.Errorf("custody: recording wallet creation: %w", err)
	}

	m.logger.Info("wallet created",
		"wallet_id", wallet.ID,
		"type", wallet.Type,
		"threshold", wallet.RequiredSignatures,
		"signers", wallet.TotalSigners)
	metrics.WalletsActive.Inc()
	return wallet, nil
}

// claimWallet persists the pending wallet record, or loads an existing
// one when the request carries the id of a previous attempt. The bool
// result reports whether an existing pending record was resumed.
func (m *Manager) claimWallet(ctx context.Context, req *CreateWalletRequest) (*types.Wallet, bool, error) {
	id := req.WalletID
	if id == "" {
		id = uuid.NewString()
	}
	wallet := &types.Wallet{
		ID:                 id,
		OwnerUserID:        req.OwnerUserID,
		ChainID:            req.ChainID,
		Type:               req.Type,
		Status:             types.WalletStatusPending,
		RequiredSignatures: req.Threshold,
		TotalSigners:       len(req.PartyIDs),
		SignerPartyIDs:     append([]string(nil), req.PartyIDs...),
		UnlockTime:         req.UnlockTime,
		Label:              req.Label,
		Description:        req.Description,
		Config:             req.Config,
		CreatedAt:          time.Now().UTC(),
	}

	data, err := json.Marshal(wallet)
	if err != nil {
		return nil, false, fmt.Errorf("custody: encoding wallet: %w", err)
	}
	err = m.backend.PutIfAbsent(walletPrefix+id, data, nil)
	if err == nil {
		return wallet, false, nil
	}
	if !errors.Is(err, storage.ErrAlreadyExists) {
		return nil, false, fmt.Errorf("custody: persisting wallet: %w", err)
	}

	existing, err := m.getWallet(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return existing, true, nil
}

// GetWallet returns the wallet with the given id. Lock state is derived
// at read time: a timelock wallet whose unlock time has elapsed is
// reported active without mutating the stored record, keeping reads
// side-effect free so only explicit custody actions appear in the audit
// trail.
func (m *Manager) GetWallet(ctx context.Context, walletID string) (*types.Wallet, error) {
	wallet, err := m.getWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}
	applyTimelock(wallet)
	return wallet, nil
}

// applyTimelock derives the effective status of a timelock wallet.
func applyTimelock(wallet *types.Wallet) {
	if wallet.Status == types.WalletStatusLocked && !wallet.Locked(time.Now()) {
		wallet.Status = types.WalletStatusActive
	}
}

// ListWallets returns all wallets, optionally filtered by owner.
func (m *Manager) ListWallets(ctx context.Context, ownerUserID string) ([]*types.Wallet, error) {
	keys, err := m.backend.List(walletPrefix)
	if err != nil {
		return nil, fmt.Errorf("custody: listing wallets: %w", err)
	}
	wallets := make([]*types.Wallet, 0, len(keys))
	for _, key := range keys {
		data, err := m.backend.Get(key)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("custody: reading wallet %s: %w", key, err)
		}
		var wallet types.Wallet
		if err := json.Unmarshal(data, &wallet); err != nil {
			return nil, fmt.Errorf("custody: decoding wallet %s: %w", key, err)
		}
		if ownerUserID != "" && wallet.OwnerUserID != ownerUserID {
			continue
		}
		applyTimelock(&wallet)
		wallets = append(wallets, &wallet)
	}
	return wallets, nil
}

// RevokeWallet permanently disables a wallet. Wallets with open
// transactions cannot be revoked; the caller must wait for them to
// finalize or reject them first. Revocation preserves the wallet
// record, its shares, and its audit history.
func (m *Manager) RevokeWallet(ctx context.Context, walletID, actor string) (err error) {
	started := time.Now()
	defer func() { metrics.RecordOperation(metrics.OpRevokeWallet, started, err) }()

	wallet, err := m.getWallet(ctx, walletID)
	if err != nil {
		return err
	}
	if wallet.Status == types.WalletStatusRevoked {
		return nil
	}

	if pc := m.pendingChecker(); pc != nil {
		open, perr := pc.HasOpenTransactions(ctx, walletID)
		if perr != nil {
			return fmt.Errorf("custody: checking open transactions: %w", perr)
		}
		if open {
			err = fmt.Errorf("%w: wallet %s", ErrWalletHasPendingTransactions, walletID)
			return err
		}
	}

	prev := wallet.Status
	wallet.Status = types.WalletStatusRevoked
	if err = m.putWallet(ctx, wallet); err != nil {
		return err
	}

	entry := audit.Entry(walletID, actor, audit.ActionRevokeWallet, audit.ResourceWallet, walletID)
	if err = m.audit.Append(ctx, entry); err != nil {
		wallet.Status = prev
		if rerr := m.putWallet(ctx, wallet); rerr != nil {
			m.logger.Error("rollback after audit failure", "wallet_id", walletID, "error", rerr)
		}
		return fmt.Errorf("custody: recording wallet revocation: %w", err)
	}

	m.logger.Info("wallet revoked", "wallet_id", walletID, "actor", actor)
	if prev == types.WalletStatusActive || prev == types.WalletStatusLocked {
		metrics.WalletsActive.Dec()
	}
	return nil
}

func (m *Manager) getWallet(ctx context.Context, walletID string) (*types.Wallet, error) {
	if walletID == "" {
		return nil, fmt.Errorf("%w: empty wallet id", ErrWalletNotFound)
	}
	data, err := m.backend.Get(walletPrefix+walletID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrWalletNotFound, walletID)
		}
		return nil, fmt.Errorf("custody: reading wallet %s: %w", walletID, err)
	}
	var wallet types.Wallet
	if err := json.Unmarshal(data, &wallet); err != nil {
		return nil, fmt.Errorf("custody: decoding wallet %s: %w", walletID, err)
	}
	return &wallet, nil
}

func (m *Manager) putWallet(ctx context.Context, wallet *types.Wallet) error {
	wallet.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(wallet)
	if err != nil {
		return fmt.Errorf("custody: encoding wallet: %w", err)
	}
	if err := m.backend.Put(walletPrefix+wallet.ID, data, nil); err != nil {
		return fmt.Errorf("custody: persisting wallet %s: %w", wallet.ID, err)
	}
	return nil
}

func partyIDs(parties []*types.Party) []string {
	ids := make([]string, len(parties))
	for i, p := range parties {
		ids[i] = p.ID
	}
	return ids
}

// deriveAddress computes the on-chain address for a wallet public key:
// the last 20 bytes of the Keccak-256 digest, hex encoded with an 0x
// prefix.
func deriveAddress(publicKey []byte) string {
	digest := sha3.NewLegacyKeccak256()
	digest.Write(publicKey)
	sum := digest.Sum(nil)
	return "0x" + hex.EncodeToString(sum[len(sum)-20:])
}
