package kdf

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const KeySize = 32

// DeriveKey expands a configured secret into a 32 byte key bound to info.
func DeriveKey(secret, salt []byte, info string) ([KeySize]byte, error) {
	var key [KeySize]byte
	h := hkdf.New(sha256.New, secret, salt, []byte(info))
	if _, err := io.ReadFull(h, key[:]); err != nil {
		return key, fmt.Errorf("hkdf: %w", err)
	}
	return key, nil
}
