// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-custody.

package workflow

import "crypto/sha256"

const messageDomain = "go-custody/v1/tx"

// messageDigest hashes the given fields with a domain separator and an
// unambiguous field delimiter.
func messageDigest(fields ...string) []byte {
	h := sha256.New()
	h.Write([]byte(messageDomain))
	for _, field := range fields {
		h.Write([]byte{0x00})
		h.Write([]byte(field))
	}
	return h.Sum(nil)
}
