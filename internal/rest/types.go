// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

package rest

import (
	"time"

	"github.com/jeremyhahn/go-custody/pkg/types"
)

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// RegisterPartyRequest creates a signing party.
type RegisterPartyRequest struct {
	DisplayName    string `json:"display_name"`
	Role           string `json:"role"`
	CommsPublicKey string `json:"comms_public_key"`
}

// CreateWalletRequest creates a custody wallet.
type CreateWalletRequest struct {
	WalletID    string            `json:"wallet_id,omitempty"`
	OwnerUserID string            `json:"owner_user_id"`
	ChainID     int64             `json:"chain_id"`
	Type        string            `json:"type"`
	PartyIDs    []string          `json:"party_ids"`
	Threshold   int               `json:"threshold"`
	UnlockTime  *time.Time        `json:"unlock_time,omitempty"`
	Label       string            `json:"label,omitempty"`
	Description string            `json:"description,omitempty"`
	Config      map[string]string `json:"config,omitempty"`
}

// ProposeTransactionRequest proposes an outbound transfer.
type ProposeTransactionRequest struct {
	WalletID    string `json:"wallet_id"`
	ToAddress   string `json:"to_address"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description,omitempty"`
	TTLSeconds  int64  `json:"ttl_seconds,omitempty"`
	Proposer    string `json:"proposer"`
}

// SubmitSignatureRequest records a party's partial signature.
type SubmitSignatureRequest struct {
	PartyID     string `json:"party_id"`
	MessageHash []byte `json:"message_hash"`
	Signature   []byte `json:"signature"`
}

// RejectTransactionRequest vetoes a pending transaction.
type RejectTransactionRequest struct {
	Caller string `json:"caller"`
	Reason string `json:"reason"`
}

// ExecuteTransactionRequest finalizes a transaction that reached its
// signature threshold.
type ExecuteTransactionRequest struct {
	Caller string `json:"caller"`
}

// RevokeWalletRequest disables a wallet.
type RevokeWalletRequest struct {
	Caller string `json:"caller"`
}

// TransactionResponse combines the transaction with its execution record.
type TransactionResponse struct {
	Transaction *types.PendingTransaction  `json:"transaction"`
	Executed    *types.ExecutedTransaction `json:"executed,omitempty"`
}

// WalletListResponse wraps a wallet listing.
type WalletListResponse struct {
	Wallets []*types.Wallet `json:"wallets"`
	Count   int             `json:"count"`
}

// AuditExportResponse wraps an audit log export.
type AuditExportResponse struct {
	WalletID string                  `json:"wallet_id"`
	Entries  []*types.AccessLogEntry `json:"entries"`
	Count    int                     `json:"count"`
}

// HealthResponse reports server liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
