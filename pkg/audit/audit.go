// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

// Package audit provides the append-only, tamper-evident record of every
// custody-affecting action. Business logic only ever writes entries; the
// read path exists solely for compliance export and is never consulted for
// business decisions.
package audit

import (
	"context"
	"time"

	"github.com/jeremyhahn/go-custody/pkg/types"
)

// Action names recorded in audit entries.
const (
	ActionCreateWallet    = "create_wallet"
	ActionRevokeWallet    = "revoke_wallet"
	ActionGenerateShares  = "generate_shares"
	ActionProposeTx       = "propose_transaction"
	ActionSubmitSignature = "submit_signature"
	ActionExecuteTx       = "execute_transaction"
	ActionRejectTx        = "reject_transaction"
	ActionExpireTx        = "expire_transaction"
	ActionExportAudit     = "export_audit_log"
)

// Resource types recorded in audit entries.
const (
	ResourceWallet      = "wallet"
	ResourceKeyShare    = "key_share"
	ResourceTransaction = "transaction"
	ResourceSignature   = "signature"
	ResourceAuditLog    = "audit_log"
)

// Logger is the append-only audit trail.
//
// Append must never silently drop an entry: when the underlying write
// fails, the error propagates so the caller can roll back the custody
// mutation that triggered it.
type Logger interface {
	// Append records an entry. The entry's ID and CreatedAt are
	// assigned by the logger if unset.
	Append(ctx context.Context, entry *types.AccessLogEntry) error

	// QueryByWallet returns entries for a wallet within [from, to],
	// oldest first. Zero time bounds are open-ended. Compliance export
	// only.
	QueryByWallet(ctx context.Context, walletID string, from, to time.Time) ([]*types.AccessLogEntry, error)
}

// Entry builds an AccessLogEntry for a custody action.
func Entry(walletID, caller, action, resourceType, resourceID string) *types.AccessLogEntry {
	return &types.AccessLogEntry{
		WalletID:     walletID,
		Caller:       caller,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Success:      true,
	}
}

// Failed marks the entry as a failed or denied attempt with its reason.
func Failed(entry *types.AccessLogEntry, err error) *types.AccessLogEntry {
	entry.Success = false
	if err != nil {
		entry.ErrorMessage = err.Error()
	}
	return entry
}
