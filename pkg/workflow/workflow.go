// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

// Package workflow implements the pending transaction lifecycle: proposal,
// partial signature collection, quorum detection, execution, rejection and
// expiry.
//
// All state transitions for a transaction happen under a per-transaction
// lock, so the pending to threshold_reached transition fires exactly once
// no matter how many parties submit concurrently, and terminal states are
// never left.
package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeremyhahn/go-custody/pkg/audit"
	"github.com/jeremyhahn/go-custody/pkg/logging"
	"github.com/jeremyhahn/go-custody/pkg/metrics"
	"github.com/jeremyhahn/go-custody/pkg/sharestore"
	"github.com/jeremyhahn/go-custody/pkg/storage"
	"github.com/jeremyhahn/go-custody/pkg/tss"
	"github.com/jeremyhahn/go-custody/pkg/types"
)

const (
	pendingTxPrefix  = "txs/pending/"
	executedTxPrefix = "txs/executed/"

	// DefaultTTL bounds how long a proposal collects signatures when the
	// proposer does not specify a TTL.
	DefaultTTL = 24 * time.Hour

	lockStripes = 64
)

// WalletSource resolves wallets for proposal validation and execution.
// The custody manager satisfies this.
type WalletSource interface {
	GetWallet(ctx context.Context, walletID string) (*types.Wallet, error)
}

// Config holds the dependencies for the transaction workflow.
type Config struct {
	// Backend stores transaction records.
	Backend storage.Backend

	// Wallets resolves wallet state.
	Wallets WalletSource

	// Shares verifies that submitting parties hold a share.
	Shares *sharestore.Store

	// Engine combines and verifies threshold signatures.
	Engine tss.Engine

	// Audit records every workflow action, including denied attempts.
	Audit audit.Logger

	// TTL is the default signature collection window. Defaults to
	// DefaultTTL.
	TTL time.Duration

	// Logger for operational logging. Defaults to the package default.
	Logger *logging.Logger
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("workflow: config is required")
	}
	if c.Backend == nil {
		return fmt.Errorf("workflow: storage backend is required")
	}
	if c.Wallets == nil {
		return fmt.Errorf("workflow: wallet source is required")
	}
	if c.Shares == nil {
		return fmt.Errorf("workflow: share store is required")
	}
	if c.Engine == nil {
		return fmt.Errorf("workflow: crypto engine is required")
	}
	if c.Audit == nil {
		return fmt.Errorf("workflow: audit logger is required")
	}
	return nil
}

// Workflow manages pending transactions for custody wallets.
type Workflow struct {
	backend storage.Backend
	wallets WalletSource
	shares  *sharestore.Store
	engine  tss.Engine
	audit   audit.Logger
	ttl     time.Duration
	logger  *logging.Logger

	locks [lockStripes]sync.Mutex
}

// New creates a transaction workflow from the given configuration.
func New(config *Config) (*Workflow, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	ttl := config.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Workflow{
		backend: config.Backend,
		wallets: config.Wallets,
		shares:  config.Shares,
		engine:  config.Engine,
		audit:   config.Audit,
		ttl:     ttl,
		logger:  logger,
	}, nil
}

func (w *Workflow) lockFor(txID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(txID))
	return &w.locks[h.Sum32()%lockStripes]
}

// ProposeRequest describes an outbound transfer to collect signatures for.
type ProposeRequest struct {
	WalletID    string
	ToAddress   string
	Amount      string
	Currency    string
	Description string

	// TTL overrides the workflow default when positive.
	TTL time.Duration

	// Proposer is recorded in the audit trail.
	Proposer string
}

func (r *ProposeRequest) validate() error {
	if r.WalletID == "" {
		return fmt.Errorf("%w: wallet id is required", ErrInvalidProposal)
	}
	if r.ToAddress == "" {
		return fmt.Errorf("%w: destination address is required", ErrInvalidProposal)
	}
	if r.Amount == "" {
		return fmt.Errorf("%w: amount is required", ErrInvalidProposal)
	}
	if r.Currency == "" {
		return fmt.Errorf("%w: currency is required", ErrInvalidProposal)
	}
	return nil
}

// Propose creates a pending transaction for an active wallet. The wallet's
// required signature count is snapshotted into the transaction so later
// wallet changes cannot alter an in-flight quorum.
func (w *Workflow) Propose(ctx context.Context, req *ProposeRequest) (tx *types.PendingTransaction, err error) {
	started := time.Now()
	defer func() { metrics.RecordOperation(metrics.OpProposeTx, started, err) }()

	if req == nil {
		return nil, fmt.Errorf("%w: request is required", ErrInvalidProposal)
	}
	if err = req.validate(); err != nil {
		return nil, err
	}

	wallet, err := w.wallets.GetWallet(ctx, req.WalletID)
	if err != nil {
		return nil, err
	}
	if wallet.Status != types.WalletStatusActive {
		err = fmt.Errorf("%w: wallet %s is %s", ErrWalletNotActive, wallet.ID, wallet.Status)
		w.auditDenied(ctx, audit.Entry(wallet.ID, req.Proposer,
			audit.ActionProposeTx, audit.ResourceTransaction, ""), err)
		return nil, err
	}

	ttl := req.TTL
	if ttl <= 0 {
		ttl = w.ttl
	}

	now := time.Now().UTC()
	tx = &types.PendingTransaction{
		ID:                 uuid.NewString(),
		WalletID:           wallet.ID,
		ToAddress:          req.ToAddress,
		Amount:             req.Amount,
		Currency:           req.Currency,
		RequiredSignatures: wallet.RequiredSignatures,
		Signatures:         make(map[string]types.PartialSignature),
		Status:             types.TxStatusPending,
		Description:        req.Description,
		ExpiresAt:          now.Add(ttl),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	tx.MessageHash = MessageHash(tx)

	data, err := json.Marshal(tx)
	if err != nil {
		return nil, fmt.Errorf("workflow: encoding transaction: %w", err)
	}
	if err = w.backend.PutIfAbsent(pendingTxPrefix+tx.ID, data, nil); err != nil {
		return nil, fmt.Errorf("workflow: persisting transaction: %w", err)
	}

	entry := audit.Entry(wallet.ID, req.Proposer, audit.ActionProposeTx,
		audit.ResourceTransaction, tx.ID)
	if err = w.audit.Append(ctx, entry); err != nil {
		if derr := w.backend.Delete(pendingTxPrefix + tx.ID); derr != nil {
			w.logger.Error("rollback after audit failure", "tx_id", tx.ID, "error", derr)
		}
		return nil, fmt.Errorf("workflow: recording proposal: %w", err)
	}

	w.logger.Info("transaction proposed",
		"tx_id", tx.ID,
		"wallet_id", wallet.ID,
		"amount", req.Amount,
		"currency", req.Currency,
		"required_signatures", tx.RequiredSignatures,
		"expires_at", tx.ExpiresAt)
	return tx, nil
}

// SubmitSignature records one party's partial signature on a transaction.
//
// A duplicate submission from the same party is an idempotent no-op that
// returns the current transaction state. The transition to
// threshold_reached happens exactly once, on the submission that meets
// quorum. Signatures arriving after quorum are accepted and retained for
// the audit trail; signatures arriving after expiry or rejection are
// refused.
func (w *Workflow) SubmitSignature(ctx context.Context, txID string, partial *types.PartialSignature) (tx *types.PendingTransaction, err error) {
	started := time.Now()
	defer func() { metrics.RecordOperation(metrics.OpSubmitSignature, started, err) }()

	if partial == nil || partial.PartyID == "" {
		return nil, fmt.Errorf("%w: partial signature with party id is required", ErrInvalidProposal)
	}

	lock := w.lockFor(txID)
	lock.Lock()
	defer lock.Unlock()

	tx, err = w.getTransaction(txID)
	if err != nil {
		return nil, err
	}

	entry := audit.Entry(tx.WalletID, partial.PartyID, audit.ActionSubmitSignature,
		audit.ResourceSignature, tx.ID)

	// Lazy expiry: a submission racing the sweeper observes the same
	// outcome either way.
	if tx.Status == types.TxStatusPending && tx.Expired(time.Now()) {
		if err = w.expireLocked(ctx, tx); err != nil {
			return nil, err
		}
	}

	switch tx.Status {
	case types.TxStatusExpired:
		err = fmt.Errorf("%w: %s expired at %s", ErrTransactionExpired, tx.ID, tx.ExpiresAt)
		w.auditDenied(ctx, entry, err)
		return nil, err
	case types.TxStatusRejected:
		err = fmt.Errorf("%w: %s: %s", ErrTransactionRejected, tx.ID, tx.RejectReason)
		w.auditDenied(ctx, entry, err)
		return nil, err
	}

	if _, err = w.shares.Get(ctx, tx.WalletID, partial.PartyID); err != nil {
		if errors.Is(err, sharestore.ErrShareNotFound) {
			err = fmt.Errorf("%w: party %s, wallet %s", ErrUnknownParty, partial.PartyID, tx.WalletID)
			w.auditDenied(ctx, entry, err)
			return nil, err
		}
		return nil, fmt.Errorf("workflow: resolving share: %w", err)
	}

	if !bytes.Equal(partial.MessageHash, tx.MessageHash) {
		err = fmt.Errorf("%w: party %s, transaction %s", ErrWrongTransaction, partial.PartyID, tx.ID)
		w.auditDenied(ctx, entry, err)
		return nil, err
	}

	if _, dup := tx.Signatures[partial.PartyID]; dup {
		w.logger.Debug("duplicate signature ignored", "tx_id", tx.ID, "party_id", partial.PartyID)
		return tx, nil
	}

	prev, err := json.Marshal(tx)
	if err != nil {
		return nil, fmt.Errorf("workflow: encoding transaction: %w", err)
	}

	stored := *partial
	stored.TxID = tx.ID
	stored.WalletID = tx.WalletID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	tx.Signatures[partial.PartyID] = stored

	reached := false
	if tx.Status == types.TxStatusPending && tx.SignatureCount() >= tx.RequiredSignatures {
		tx.Status = types.TxStatusThresholdReached
		reached = true
	}

	if err = w.putTransaction(tx); err != nil {
		return nil, err
	}
	if err = w.audit.Append(ctx, entry); err != nil {
		if rerr := w.backend.Put(pendingTxPrefix+tx.ID, prev, nil); rerr != nil {
			w.logger.Error("rollback after audit failure", "tx_id", tx.ID, "error", rerr)
		}
		return nil, fmt.Errorf("workflow: recording signature: %w", err)
	}

	metrics.SignaturesCollected.Inc()
	if reached {
		w.logger.Info("signature threshold reached",
			"tx_id", tx.ID,
			"wallet_id", tx.WalletID,
			"signatures", tx.SignatureCount(),
			"required", tx.RequiredSignatures)
	} else {
		w.logger.Debug("signature recorded",
			"tx_id", tx.ID,
			"party_id", partial.PartyID,
			"signatures", tx.SignatureCount(),
			"required", tx.RequiredSignatures)
	}
	return tx, nil
}

// Execute combines the collected partial signatures and finalizes the
// transaction. Only valid from threshold_reached. A combination or
// verification failure moves the transaction to rejected; that outcome is
// final and surfaces as ErrExecutionFailed.
func (w *Workflow) Execute(ctx context.Context, txID, caller string) (exec *types.ExecutedTransaction, err error) {
	started := time.Now()
	defer func() { metrics.RecordOperation(metrics.OpExecuteTx, started, err) }()

	lock := w.lockFor(txID)
	lock.Lock()
	defer lock.Unlock()

	tx, err := w.getTransaction(txID)
	if err != nil {
		return nil, err
	}

	entry := audit.Entry(tx.WalletID, caller, audit.ActionExecuteTx,
		audit.ResourceTransaction, tx.ID)

	switch tx.Status {
	case types.TxStatusThresholdReached:
	case types.TxStatusPending:
		err = fmt.Errorf("%w: have %d of %d signatures", ErrThresholdNotReached,
			tx.SignatureCount(), tx.RequiredSignatures)
		w.auditDenied(ctx, entry, err)
		return nil, err
	default:
		err = fmt.Errorf("%w: cannot execute from %s", ErrInvalidTransition, tx.Status)
		w.auditDenied(ctx, entry, err)
		return nil, err
	}

	wallet, err := w.wallets.GetWallet(ctx, tx.WalletID)
	if err != nil {
		return nil, err
	}

	partials := make([]types.PartialSignature, 0, len(tx.Signatures))
	signers := make([]string, 0, len(tx.Signatures))
	for partyID, partial := range tx.Signatures {
		partials = append(partials, partial)
		signers = append(signers, partyID)
	}
	sort.Strings(signers)

	combined, cerr := w.engine.CombineSignatures(ctx, &tss.CombineRequest{
		WalletID:    tx.WalletID,
		PublicKey:   wallet.PublicKey,
		MessageHash: tx.MessageHash,
		Threshold:   tx.RequiredSignatures,
		Partials:    partials,
	})
	if cerr == nil && !w.engine.Verify(wallet.PublicKey, tx.MessageHash, combined) {
		cerr = fmt.Errorf("combined signature failed verification")
	}
	if cerr != nil {
		tx.Status = types.TxStatusRejected
		tx.RejectReason = cerr.Error()
		if perr := w.putTransaction(tx); perr != nil {
			return nil, perr
		}
		w.auditDenied(ctx, entry, cerr)
		metrics.TransactionsFinalized.WithLabelValues(string(types.TxStatusRejected)).Inc()
		w.logger.Error("transaction execution failed",
			"tx_id", tx.ID, "wallet_id", tx.WalletID, "error", cerr)
		err = fmt.Errorf("%w: %v", ErrExecutionFailed, cerr)
		return nil, err
	}

	exec = &types.ExecutedTransaction{
		TxID:              tx.ID,
		WalletID:          tx.WalletID,
		CombinedSignature: combined,
		ExecutedByParties: signers,
		ExecutedAt:        time.Now().UTC(),
	}
	data, err := json.Marshal(exec)
	if err != nil {
		return nil, fmt.Errorf("workflow: encoding executed transaction: %w", err)
	}
	prev, err := json.Marshal(tx)
	if err != nil {
		return nil, fmt.Errorf("workflow: encoding transaction: %w", err)
	}

	if err = w.backend.PutIfAbsent(executedTxPrefix+tx.ID, data, nil); err != nil {
		return nil, fmt.Errorf("workflow: persisting executed transaction: %w", err)
	}

	tx.Status = types.TxStatusExecuted
	if err = w.putTransaction(tx); err != nil {
		if derr := w.backend.Delete(executedTxPrefix + tx.ID); derr != nil {
			w.logger.Error("rollback after status failure", "tx_id", tx.ID, "error", derr)
		}
		return nil, err
	}
	if err = w.audit.Append(ctx, entry); err != nil {
		// Unwind both durable writes so the transaction stays in
		// threshold_reached and Execute can be retried once the audit
		// log recovers.
		if rerr := w.backend.Put(pendingTxPrefix+tx.ID, prev, nil); rerr != nil {
			w.logger.Error("rollback after audit failure", "tx_id", tx.ID, "error", rerr)
		}
		if derr := w.backend.Delete(executedTxPrefix + tx.ID); derr != nil {
			w.logger.Error("rollback after audit failure", "tx_id", tx.ID, "error", derr)
		}
		return nil, fmt.Errorf("workflow: recording execution: %w", err)
	}

	metrics.TransactionsFinalized.WithLabelValues(string(types.TxStatusExecuted)).Inc()
	w.logger.Info("transaction executed",
		"tx_id", tx.ID,
		"wallet_id", tx.WalletID,
		"signers", len(signers))
	return exec, nil
}

// Reject vetoes a transaction. Valid from pending and threshold_reached;
// rejecting an already-rejected transaction is a no-op. Collected partial
// signatures are retained for the audit trail but can never be combined.
func (w *Workflow) Reject(ctx context.Context, txID, caller, reason string) (err error) {
	started := time.Now()
	defer func() { metrics.RecordOperation(metrics.OpRejectTx, started, err) }()

	lock := w.lockFor(txID)
	lock.Lock()
	defer lock.Unlock()

	tx, err := w.getTransaction(txID)
	if err != nil {
		return err
	}

	switch tx.Status {
	case types.TxStatusPending, types.TxStatusThresholdReached:
	case types.TxStatusRejected:
		return nil
	default:
		err = fmt.Errorf("%w: cannot reject from %s", ErrInvalidTransition, tx.Status)
		return err
	}

	prev, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("workflow: encoding transaction: %w", err)
	}

	tx.Status = types.TxStatusRejected
	tx.RejectReason = reason
	if err = w.putTransaction(tx); err != nil {
		return err
	}

	entry := audit.Entry(tx.WalletID, caller, audit.ActionRejectTx,
		audit.ResourceTransaction, tx.ID)
	if err = w.audit.Append(ctx, entry); err != nil {
		if rerr := w.backend.Put(pendingTxPrefix+tx.ID, prev, nil); rerr != nil {
			w.logger.Error("rollback after audit failure", "tx_id", tx.ID, "error", rerr)
		}
		return fmt.Errorf("workflow: recording rejection: %w", err)
	}

	metrics.TransactionsFinalized.WithLabelValues(string(types.TxStatusRejected)).Inc()
	w.logger.Info("transaction rejected", "tx_id", tx.ID, "reason", reason)
	return nil
}

// GetTransaction returns the transaction and, when it executed, the
// immutable execution record.
func (w *Workflow) GetTransaction(ctx context.Context, txID string) (*types.PendingTransaction, *types.ExecutedTransaction, error) {
	tx, err := w.getTransaction(txID)
	if err != nil {
		return nil, nil, err
	}
	if tx.Status != types.TxStatusExecuted {
		return tx, nil, nil
	}

	data, err := w.backend.Get(executedTxPrefix + txID)
	if err != nil {
		return nil, nil, fmt.Errorf("workflow: reading executed transaction %s: %w", txID, err)
	}
	var exec types.ExecutedTransaction
	if err := json.Unmarshal(data, &exec); err != nil {
		return nil, nil, fmt.Errorf("workflow: decoding executed transaction %s: %w", txID, err)
	}
	return tx, &exec, nil
}

// ListByWallet returns all transactions for a wallet, newest first.
func (w *Workflow) ListByWallet(ctx context.Context, walletID string) ([]*types.PendingTransaction, error) {
	txs, err := w.listAll()
	if err != nil {
		return nil, err
	}
	filtered := txs[:0]
	for _, tx := range txs {
		if tx.WalletID == walletID {
			filtered = append(filtered, tx)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})
	return filtered, nil
}

// HasOpenTransactions reports whether the wallet has transactions still
// collecting signatures or awaiting execution.
func (w *Workflow) HasOpenTransactions(ctx context.Context, walletID string) (bool, error) {
	txs, err := w.listAll()
	if err != nil {
		return false, err
	}
	for _, tx := range txs {
		if tx.WalletID == walletID && !tx.Status.Terminal() {
			return true, nil
		}
	}
	return false, nil
}

// SweepExpired transitions every pending transaction past its TTL to
// expired and returns the number of transactions swept.
func (w *Workflow) SweepExpired(ctx context.Context) (swept int, err error) {
	started := time.Now()
	defer func() { metrics.RecordOperation(metrics.OpSweepExpired, started, err) }()

	txs, err := w.listAll()
	if err != nil {
		return 0, err
	}

	now := time.Now()
	for _, candidate := range txs {
		if candidate.Status != types.TxStatusPending || !candidate.Expired(now) {
			continue
		}

		lock := w.lockFor(candidate.ID)
		lock.Lock()
		tx, gerr := w.getTransaction(candidate.ID)
		if gerr == nil && tx.Status == types.TxStatusPending && tx.Expired(now) {
			gerr = w.expireLocked(ctx, tx)
			if gerr == nil {
				swept++
			}
		}
		lock.Unlock()

		if gerr != nil && !errors.Is(gerr, ErrTransactionNotFound) {
			w.logger.Error("sweeping transaction", "tx_id", candidate.ID, "error", gerr)
		}
	}

	if swept > 0 {
		w.logger.Info("expired transactions swept", "count", swept)
	}
	return swept, nil
}

// expireLocked transitions a pending transaction to expired. Caller holds
// the transaction lock.
func (w *Workflow) expireLocked(ctx context.Context, tx *types.PendingTransaction) error {
	prev, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("workflow: encoding transaction: %w", err)
	}

	tx.Status = types.TxStatusExpired
	if err := w.putTransaction(tx); err != nil {
		return err
	}

	entry := audit.Entry(tx.WalletID, "sweeper", audit.ActionExpireTx,
		audit.ResourceTransaction, tx.ID)
	if err := w.audit.Append(ctx, entry); err != nil {
		if rerr := w.backend.Put(pendingTxPrefix+tx.ID, prev, nil); rerr != nil {
			w.logger.Error("rollback after audit failure", "tx_id", tx.ID, "error", rerr)
		}
		tx.Status = types.TxStatusPending
		return fmt.Errorf("workflow: recording expiry: %w", err)
	}

	metrics.TransactionsFinalized.WithLabelValues(string(types.TxStatusExpired)).Inc()
	return nil
}

func (w *Workflow) getTransaction(txID string) (*types.PendingTransaction, error) {
	if txID == "" {
		return nil, fmt.Errorf("%w: empty transaction id", ErrTransactionNotFound)
	}
	data, err := w.backend.Get(pendingTxPrefix + txID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, txID)
		}
		return nil, fmt.Errorf("workflow: reading transaction %s: %w", txID, err)
	}
	var tx types.PendingTransaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("workflow: decoding transaction %s: %w", txID, err)
	}
	return &tx, nil
}

func (w *Workflow) putTransaction(tx *types.PendingTransaction) error {
	tx.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("workflow: encoding transaction: %w", err)
	}
	if err := w.backend.Put(pendingTxPrefix+tx.ID, data, nil); err != nil {
		return fmt.Errorf("workflow: persisting transaction %s: %w", tx.ID, err)
	}
	return nil
}

func (w *Workflow) listAll() ([]*types.PendingTransaction, error) {
	keys, err := w.backend.List(pendingTxPrefix)
	if err != nil {
		return nil, fmt.Errorf("workflow: listing transactions: %w", err)
	}
	txs := make([]*types.PendingTransaction, 0, len(keys))
	for _, key := range keys {
		data, err := w.backend.Get(key)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("workflow: reading transaction %s: %w", key, err)
		}
		var tx types.PendingTransaction
		if err := json.Unmarshal(data, &tx); err != nil {
			return nil, fmt.Errorf("workflow: decoding transaction %s: %w", key, err)
		}
		txs = append(txs, &tx)
	}
	return txs, nil
}

// auditDenied records a refused attempt. Denied requests mutate nothing,
// so a failed audit write here is logged rather than propagated.
func (w *Workflow) auditDenied(ctx context.Context, entry *types.AccessLogEntry, cause error) {
	if err := w.audit.Append(ctx, audit.Failed(entry, cause)); err != nil {
		w.logger.Error("recording denied attempt", "action", entry.Action, "error", err)
	}
}

// MessageHash computes the canonical digest every party signs for a
// transaction: the transfer fields bound to the transaction and wallet
// identity, so a signature can never be replayed against different
// parameters.
func MessageHash(tx *types.PendingTransaction) []byte {
	return messageDigest(tx.ID, tx.WalletID, tx.ToAddress, tx.Amount, tx.Currency,
		strconv.FormatInt(tx.ExpiresAt.Unix(), 10))
}
