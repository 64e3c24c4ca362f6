// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

package workflow

import "errors"

var (
	// ErrTransactionNotFound is returned when a transaction id does not
	// resolve.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrInvalidProposal is returned for malformed proposal input.
	ErrInvalidProposal = errors.New("invalid transaction proposal")

	// ErrWalletNotActive is returned when proposing against a wallet
	// that is pending, locked, or revoked.
	ErrWalletNotActive = errors.New("wallet is not active")

	// ErrUnknownParty is returned when the submitting party holds no key
	// share for the transaction's wallet.
	ErrUnknownParty = errors.New("party holds no share for wallet")

	// ErrWrongTransaction is returned when a partial signature covers a
	// different message hash than the transaction's.
	ErrWrongTransaction = errors.New("partial signature covers a different message")

	// ErrTransactionExpired is returned when signatures arrive after the
	// transaction's TTL elapsed. Expiry is final even if quorum would
	// otherwise have been met.
	ErrTransactionExpired = errors.New("transaction expired")

	// ErrTransactionRejected is returned when interacting with a
	// transaction that was vetoed or failed execution.
	ErrTransactionRejected = errors.New("transaction rejected")

	// ErrThresholdNotReached is returned when execution is requested
	// before quorum.
	ErrThresholdNotReached = errors.New("signature threshold not reached")

	// ErrInvalidTransition is returned for state transitions the
	// lifecycle does not permit.
	ErrInvalidTransition = errors.New("invalid transaction state transition")

	// ErrExecutionFailed is returned when signature combination or
	// verification fails for a transaction that reached quorum. The
	// transaction moves to rejected; this is not retryable.
	ErrExecutionFailed = errors.New("transaction execution failed")
)
