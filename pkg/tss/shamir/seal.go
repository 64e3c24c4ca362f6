// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

package shamir

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// sharePayload is the cleartext content of a sealed share blob.
type sharePayload struct {
	WalletID   string `json:"wallet_id"`
	PartyID    string `json:"party_id"`
	ShareIndex int    `json:"share_index"`
	Fragment   string `json:"fragment"`
}

// newAEAD derives a 256-bit sealing key from the configured key material
// and returns an AES-GCM cipher for it.
func newAEAD(kek []byte) (cipher.AEAD, error) {
	reader := hkdf.New(sha256.New, kek, nil, []byte("go-custody/v1/share-kek"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("failed to derive sealing key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}

	return cipher.NewGCM(block)
}

// seal encrypts the payload with a random nonce prepended to the
// ciphertext. The wallet id is bound as additional data so a blob cannot be
// replayed across wallets.
func seal(aead cipher.AEAD, payload *sharePayload) ([]byte, error) {
	cleartext, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal share payload: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, cleartext, []byte(payload.WalletID)), nil
}

// open decrypts a sealed share blob produced by seal.
func open(aead cipher.AEAD, walletID string, blob []byte) (*sharePayload, error) {
	if len(blob) < aead.NonceSize() {
		return nil, fmt.Errorf("share blob too short")
	}

	nonce, ciphertext := blob[:aead.NonceSize()], blob[aead.NonceSize():]
	cleartext, err := aead.Open(nil, nonce, ciphertext, []byte(walletID))
	if err != nil {
		return nil, fmt.Errorf("failed to open share blob: %w", err)
	}

	var payload sharePayload
	if err := json.Unmarshal(cleartext, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal share payload: %w", err)
	}

	return &payload, nil
}
