// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

package tss

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures. The kind decides retryability at
// higher layers; no raw share or signature bytes ever appear in the detail.
type ErrorKind string

const (
	// KindInsufficientParties means the party set cannot satisfy the
	// requested threshold.
	KindInsufficientParties ErrorKind = "insufficient_parties"

	// KindInsufficientSignatures means fewer than threshold valid
	// partial signatures were supplied for combination.
	KindInsufficientSignatures ErrorKind = "insufficient_signatures"

	// KindInvalidShare means a share failed to open or verify.
	KindInvalidShare ErrorKind = "invalid_share"

	// KindInvalidPartial means a partial signature did not verify
	// against its party's verification key.
	KindInvalidPartial ErrorKind = "invalid_partial"

	// KindMessageMismatch means supplied partials reference different
	// message hashes.
	KindMessageMismatch ErrorKind = "message_mismatch"

	// KindCombineFailed means combination produced no verifying
	// signature. Fatal for the transaction that requested it.
	KindCombineFailed ErrorKind = "combine_failed"

	// KindInternal covers unexpected engine failures.
	KindInternal ErrorKind = "internal"
)

var (
	// ErrInsufficientParties matches KindInsufficientParties errors.
	ErrInsufficientParties = errors.New("tss: insufficient parties for threshold")

	// ErrInsufficientSignatures matches KindInsufficientSignatures errors.
	ErrInsufficientSignatures = errors.New("tss: insufficient partial signatures")

	// ErrInvalidShare matches KindInvalidShare errors.
	ErrInvalidShare = errors.New("tss: invalid key share")

	// ErrInvalidPartial matches KindInvalidPartial errors.
	ErrInvalidPartial = errors.New("tss: invalid partial signature")

	// ErrMessageMismatch matches KindMessageMismatch errors.
	ErrMessageMismatch = errors.New("tss: partial signatures reference different messages")

	// ErrCombineFailed matches KindCombineFailed errors.
	ErrCombineFailed = errors.New("tss: combined signature failed verification")

	// ErrEngineInternal matches KindInternal errors.
	ErrEngineInternal = errors.New("tss: engine failure")
)

// CryptoEngineError is the typed error every engine failure propagates as.
// It carries the failure kind and a human-readable detail; errors.Is matches
// the kind's sentinel.
type CryptoEngineError struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *CryptoEngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("crypto engine: %s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("crypto engine: %s: %s", e.Kind, e.Detail)
}

func (e *CryptoEngineError) Unwrap() error {
	switch e.Kind {
	case KindInsufficientParties:
		return ErrInsufficientParties
	case KindInsufficientSignatures:
		return ErrInsufficientSignatures
	case KindInvalidShare:
		return ErrInvalidShare
	case KindInvalidPartial:
		return ErrInvalidPartial
	case KindMessageMismatch:
		return ErrMessageMismatch
	case KindCombineFailed:
		return ErrCombineFailed
	default:
		return ErrEngineInternal
	}
}

// NewError constructs a CryptoEngineError.
func NewError(kind ErrorKind, detail string) *CryptoEngineError {
	return &CryptoEngineError{Kind: kind, Detail: detail}
}

// WrapError constructs a CryptoEngineError wrapping an underlying cause.
func WrapError(kind ErrorKind, detail string, err error) *CryptoEngineError {
	return &CryptoEngineError{Kind: kind, Detail: detail, Err: err}
}
