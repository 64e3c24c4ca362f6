// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateParty is returned when the communication public key is
	// already registered to another party.
	ErrDuplicateParty = errors.New("party already registered")

	// ErrPartyNotFound is returned when a party does not exist.
	ErrPartyNotFound = errors.New("party not found")

	// ErrInvalidParty is returned when registration input is malformed.
	ErrInvalidParty = errors.New("invalid party")
)

// DuplicatePartyError wraps ErrDuplicateParty with the identifier of the
// existing party so the caller can reconcile.
type DuplicatePartyError struct {
	ExistingPartyID string
}

func (e *DuplicatePartyError) Error() string {
	return fmt.Sprintf("comms public key already registered to party %s", e.ExistingPartyID)
}

func (e *DuplicatePartyError) Unwrap() error {
	return ErrDuplicateParty
}
