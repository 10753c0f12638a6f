// Package ident encodes UUIDs into a hyperlink-friendly form.
//
// URLs are part of the UX: they get copy/pasted into chats, tweets, and
// emails, so the encoding should be compact, free of special characters,
// and free of confusables like I/l/1. Base58 (the bitcoin alphabet)
// gives all of that at almost the same length as base64 -- a 16-byte
// UUID comes out at 22 characters instead of 32 hex digits -- without
// the padding and underscore noise of urlsafe base64.
package ident

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
)

// Encode renders a UUID as its base58 string form.
func Encode(id uuid.UUID) string {
	return base58.Encode(id[:])
}

// Decode parses a base58 string back into a UUID.
// Canonical hex UUIDs are rejected: we only accept the format we emit.
func Decode(value string) (uuid.UUID, error) {
	raw, err := base58.Decode(value)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("invalid base58: %w", err)
	}

	id, err := uuid.FromBytes(raw)
	if err != nil {
		// This is a much more descriptive error message than a raw
		// byte-length complaint.
		return uuid.UUID{}, fmt.Errorf("base58 value is not a UUID: %w", err)
	}

	return id, nil
}
