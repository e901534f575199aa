package xtea

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/xtea"
)

// Key packs four seed words into the 16 byte big-endian XTEA key.
func Key(words [4]int32) []byte {
	key := make([]byte, 16)
	for i, w := range words {
		binary.BigEndian.PutUint32(key[i*4:], uint32(w))
	}
	return key
}

// Decipher decrypts buf in place, one 8 byte block at a time. A trailing
// partial block is left as is.
func Decipher(buf []byte, words [4]int32) error {
	c, err := xtea.NewCipher(Key(words))
	if err != nil {
		return fmt.Errorf("xtea.NewCipher: %w", err)
	}
	for off := 0; off+xtea.BlockSize <= len(buf); off += xtea.BlockSize {
		block := buf[off : off+xtea.BlockSize]
		c.Decrypt(block, block)
	}
	return nil
}

// Encipher is the inverse of Decipher, used by client tooling.
func Encipher(buf []byte, words [4]int32) error {
	c, err := xtea.NewCipher(Key(words))
	if err != nil {
		return fmt.Errorf("xtea.NewCipher: %w", err)
	}
	for off := 0; off+xtea.BlockSize <= len(buf); off += xtea.BlockSize {
		block := buf[off : off+xtea.BlockSize]
		c.Encrypt(block, block)
	}
	return nil
}
