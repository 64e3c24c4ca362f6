// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

// Package types contains shared type definitions used across the custody
// subsystem, including parties, wallets, key shares, pending transactions
// and audit records. This package has no dependencies on other go-custody
// packages to prevent import cycles.
package types

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrUnknownPartyRole is returned when a party role string is not recognized.
	ErrUnknownPartyRole = errors.New("unknown party role")

	// ErrUnknownWalletType is returned when a wallet type string is not recognized.
	ErrUnknownWalletType = errors.New("unknown wallet type")

	// ErrInvalidThreshold is returned when threshold parameters are invalid.
	ErrInvalidThreshold = errors.New("invalid threshold parameters")
)

// =============================================================================
// Party
// =============================================================================

// PartyRole describes the function a signing party performs within a custody
// wallet's signer set.
type PartyRole string

const (
	// RoleSigner is a regular signing party.
	RoleSigner PartyRole = "signer"

	// RoleCoordinator may additionally veto pending transactions.
	RoleCoordinator PartyRole = "coordinator"

	// RoleBackup holds a share for disaster recovery and does not
	// participate in routine signing.
	RoleBackup PartyRole = "backup"
)

// IsValid reports whether the role is one of the defined party roles.
func (r PartyRole) IsValid() bool {
	switch r {
	case RoleSigner, RoleCoordinator, RoleBackup:
		return true
	}
	return false
}

// ParsePartyRole converts a string into a PartyRole.
func ParsePartyRole(s string) (PartyRole, error) {
	role := PartyRole(s)
	if !role.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrUnknownPartyRole, s)
	}
	return role, nil
}

// Party is an independent signing party registered with the custody
// subsystem. Parties are disabled on revocation, never deleted, so that
// historical signatures remain attributable.
type Party struct {
	ID             string    `json:"id"`
	DisplayName    string    `json:"display_name"`
	Role           PartyRole `json:"role"`
	CommsPublicKey string    `json:"comms_public_key"`
	Enabled        bool      `json:"enabled"`
	CreatedAt      time.Time `json:"created_at"`
}

// =============================================================================
// Key shares
// =============================================================================

// KeyShare is one party's fragment of a wallet's distributed private key.
// The share material itself is sealed; only the crypto engine that produced
// it can open EncryptedShareBlob. Shares are immutable once created.
type KeyShare struct {
	ID                 string    `json:"id"`
	WalletID           string    `json:"wallet_id"`
	PartyID            string    `json:"party_id"`
	ShareIndex         int       `json:"share_index"`
	EncryptedShareBlob []byte    `json:"encrypted_share_blob"`
	VerificationKey    []byte    `json:"verification_key"`
	WalletPublicKey    []byte    `json:"wallet_public_key"`
	Threshold          int       `json:"threshold"`
	TotalShares        int       `json:"total_shares"`
	CreatedAt          time.Time `json:"created_at"`
}

// Validate checks the share's structural invariants.
func (s *KeyShare) Validate() error {
	if s.WalletID == "" || s.PartyID == "" {
		return fmt.Errorf("key share requires wallet and party identifiers")
	}
	if s.ShareIndex < 1 || s.ShareIndex > s.TotalShares {
		return fmt.Errorf("invalid share index %d for %d total shares", s.ShareIndex, s.TotalShares)
	}
	if s.Threshold < 2 || s.Threshold > s.TotalShares {
		return fmt.Errorf("%w: threshold %d of %d", ErrInvalidThreshold, s.Threshold, s.TotalShares)
	}
	if len(s.EncryptedShareBlob) == 0 {
		return fmt.Errorf("key share blob is empty")
	}
	return nil
}

// =============================================================================
// Wallets
// =============================================================================

// WalletType identifies the custody model applied to a wallet.
type WalletType string

const (
	WalletTypeMultisig WalletType = "multisig"
	WalletTypeTimelock WalletType = "timelock"
	WalletTypeStandard WalletType = "standard"
)

// IsValid reports whether the wallet type is one of the defined types.
func (t WalletType) IsValid() bool {
	switch t {
	case WalletTypeMultisig, WalletTypeTimelock, WalletTypeStandard:
		return true
	}
	return false
}

// ParseWalletType converts a string into a WalletType.
func ParseWalletType(s string) (WalletType, error) {
	wt := WalletType(s)
	if !wt.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrUnknownWalletType, s)
	}
	return wt, nil
}

// WalletStatus is the lifecycle state of a custody wallet.
type WalletStatus string

const (
	// WalletStatusPending means key generation has not completed.
	WalletStatusPending WalletStatus = "pending"

	// WalletStatusActive means all shares are issued and the wallet can
	// propose and sign transactions.
	WalletStatusActive WalletStatus = "active"

	// WalletStatusLocked means a time lock has not yet elapsed.
	WalletStatusLocked WalletStatus = "locked"

	// WalletStatusRevoked is terminal.
	WalletStatusRevoked WalletStatus = "revoked"
)

// Wallet is an institutional custody wallet whose spending authority is
// distributed across RequiredSignatures of TotalSigners parties.
type Wallet struct {
	ID                 string            `json:"id"`
	OwnerUserID        string            `json:"owner_user_id"`
	ChainID            int64             `json:"chain_id"`
	Type               WalletType        `json:"type"`
	PublicKey          []byte            `json:"public_key,omitempty"`
	PublicAddress      string            `json:"public_address,omitempty"`
	RequiredSignatures int               `json:"required_signatures"`
	TotalSigners       int               `json:"total_signers"`
	SignerPartyIDs     []string          `json:"signer_party_ids"`
	Status             WalletStatus      `json:"status"`
	UnlockTime         *time.Time        `json:"unlock_time,omitempty"`
	Label              string            `json:"label,omitempty"`
	Description        string            `json:"description,omitempty"`
	Config             map[string]string `json:"config,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// Locked reports whether the wallet's time lock is still in effect at now.
func (w *Wallet) Locked(now time.Time) bool {
	return w.Type == WalletTypeTimelock && w.UnlockTime != nil && now.Before(*w.UnlockTime)
}

// =============================================================================
// Transactions
// =============================================================================

// TransactionStatus is the lifecycle state of a proposed transfer.
type TransactionStatus string

const (
	// TxStatusPending is collecting partial signatures.
	TxStatusPending TransactionStatus = "pending"

	// TxStatusThresholdReached means quorum is met and the transaction is
	// eligible for combination and execution.
	TxStatusThresholdReached TransactionStatus = "threshold_reached"

	// TxStatusExecuted is terminal; a combined signature was produced and
	// verified.
	TxStatusExecuted TransactionStatus = "executed"

	// TxStatusExpired is terminal; the TTL elapsed before quorum.
	TxStatusExpired TransactionStatus = "expired"

	// TxStatusRejected is terminal; an explicit veto or a combination
	// failure ended the transaction.
	TxStatusRejected TransactionStatus = "rejected"
)

// Terminal reports whether no further state transitions are possible.
func (s TransactionStatus) Terminal() bool {
	switch s {
	case TxStatusExecuted, TxStatusExpired, TxStatusRejected:
		return true
	}
	return false
}

// PartialSignature is one party's signature fragment over a transaction's
// message hash. At most one partial signature per (tx, party) is ever
// recorded; duplicates are idempotently ignored.
type PartialSignature struct {
	PartyID     string    `json:"party_id"`
	TxID        string    `json:"tx_id"`
	WalletID    string    `json:"wallet_id"`
	MessageHash []byte    `json:"message_hash"`
	Signature   []byte    `json:"signature"`
	CreatedAt   time.Time `json:"created_at"`
}

// PendingTransaction is a proposed outbound transfer collecting partial
// signatures until quorum, expiry or rejection.
type PendingTransaction struct {
	ID                 string                      `json:"id"`
	WalletID           string                      `json:"wallet_id"`
	ToAddress          string                      `json:"to_address"`
	Amount             string                      `json:"amount"`
	Currency           string                      `json:"currency"`
	MessageHash        []byte                      `json:"message_hash"`
	RequiredSignatures int                         `json:"required_signatures"`
	Signatures         map[string]PartialSignature `json:"signatures"`
	Status             TransactionStatus           `json:"status"`
	Description        string                      `json:"description,omitempty"`
	RejectReason       string                      `json:"reject_reason,omitempty"`
	ExpiresAt          time.Time                   `json:"expires_at"`
	CreatedAt          time.Time                   `json:"created_at"`
	UpdatedAt          time.Time                   `json:"updated_at"`
}

// SignatureCount returns the number of distinct parties that have signed.
func (t *PendingTransaction) SignatureCount() int {
	return len(t.Signatures)
}

// Expired reports whether the transaction's TTL has elapsed at now.
func (t *PendingTransaction) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// ExecutedTransaction records the outcome of a pending transaction that
// reached quorum and produced a verified combined signature. Immutable.
type ExecutedTransaction struct {
	TxID              string    `json:"tx_id"`
	WalletID          string    `json:"wallet_id"`
	CombinedSignature []byte    `json:"combined_signature"`
	ChainTxHash       string    `json:"chain_tx_hash,omitempty"`
	ExecutedByParties []string  `json:"executed_by_parties"`
	ExecutedAt        time.Time `json:"executed_at"`
}

// =============================================================================
// Audit
// =============================================================================

// AccessLogEntry is one append-only audit record describing a
// custody-affecting action, successful or not.
type AccessLogEntry struct {
	ID           string    `json:"id"`
	WalletID     string    `json:"wallet_id"`
	Caller       string    `json:"caller"`
	Action       string    `json:"action"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id,omitempty"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
