// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

package custody

import (
	"errors"
	"fmt"
)

var (
	// ErrWalletNotFound is returned when a wallet does not exist.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrInsufficientParties is returned when the signer set cannot
	// satisfy the requested threshold.
	ErrInsufficientParties = errors.New("insufficient parties for threshold")

	// ErrPartialKeyGenerationConflict is returned when key generation is
	// retried for a pending wallet that already persisted one or more
	// shares. Operator intervention or a fresh wallet id is required.
	ErrPartialKeyGenerationConflict = errors.New("wallet has partially generated key shares")

	// ErrWalletHasPendingTransactions is returned when revoking a wallet
	// with open transactions.
	ErrWalletHasPendingTransactions = errors.New("wallet has pending transactions")

	// ErrWalletAlreadyKeyed is returned when key generation is requested
	// for a wallet that already completed it.
	ErrWalletAlreadyKeyed = errors.New("wallet already keyed")

	// ErrInvalidWalletRequest is returned for malformed creation input.
	ErrInvalidWalletRequest = errors.New("invalid wallet request")
)

// PartialKeyGenerationConflictError wraps ErrPartialKeyGenerationConflict
// with the wallet and persisted-share count so operators can reconcile.
type PartialKeyGenerationConflictError struct {
	WalletID        string
	PersistedShares int
}

func (e *PartialKeyGenerationConflictError) Error() string {
	return fmt.Sprintf("wallet %s has %d persisted key shares from an earlier generation attempt",
		e.WalletID, e.PersistedShares)
}

func (e *PartialKeyGenerationConflictError) Unwrap() error {
	return ErrPartialKeyGenerationConflict
}
