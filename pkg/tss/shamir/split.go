// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

// Package shamir implements the tss.Engine contract with Shamir Secret
// Sharing over an Ed25519 group key. The group seed is split with the
// sssa-golang library; each party's fragment additionally derives a
// per-party Ed25519 key whose public half is published as the share's
// verification key, making partial signatures independently verifiable.
//
// Share fragments exist in cleartext only inside this package, sealed with
// AES-256-GCM under the engine's key-encryption key everywhere else.
package shamir

import (
	"encoding/hex"
	"fmt"

	sssa "github.com/SSSaaS/sssa-golang"
)

// split divides a secret into total fragments where any threshold of them
// reconstruct it. Fragments are the sssa wire strings.
func split(secret []byte, threshold, total int) ([]string, error) {
	if threshold < 2 {
		return nil, fmt.Errorf("threshold must be at least 2, got %d", threshold)
	}
	if total < threshold {
		return nil, fmt.Errorf("total fragments (%d) must be >= threshold (%d)", total, threshold)
	}
	if total > 255 {
		return nil, fmt.Errorf("total fragments cannot exceed 255, got %d", total)
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("secret cannot be empty")
	}

	fragments, err := sssa.Create(threshold, total, hex.EncodeToString(secret))
	if err != nil {
		return nil, fmt.Errorf("failed to split secret: %w", err)
	}

	return fragments, nil
}

// combine reconstructs the original secret from threshold or more
// fragments. Any subset of at least threshold fragments works; order is
// irrelevant.
func combine(fragments []string) ([]byte, error) {
	if len(fragments) == 0 {
		return nil, fmt.Errorf("no fragments provided")
	}

	secretHex, err := sssa.Combine(fragments)
	if err != nil {
		return nil, fmt.Errorf("failed to combine fragments: %w", err)
	}

	secret, err := hex.DecodeString(secretHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode reconstructed secret: %w", err)
	}

	return secret, nil
}
