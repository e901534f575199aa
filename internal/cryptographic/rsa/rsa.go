package rsa

import (
	stdrsa "crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"os"
)

// Decrypter applies the server's private exponent to a login secure block.
// The block is raw (unpadded) RSA, so crypto/rsa's padded APIs do not apply.
type Decrypter struct {
	Modulus  *big.Int
	Exponent *big.Int
}

func NewDecrypter(modulus, exponent *big.Int) (*Decrypter, error) {
	if modulus == nil || exponent == nil || modulus.Sign() <= 0 || exponent.Sign() <= 0 {
		return nil, errors.New("rsa: modulus and exponent must be positive")
	}
	return &Decrypter{Modulus: modulus, Exponent: exponent}, nil
}

// FromPrivateKey uses the key's modulus and private exponent.
func FromPrivateKey(key *stdrsa.PrivateKey) (*Decrypter, error) {
	if key == nil {
		return nil, errors.New("rsa: nil private key")
	}
	return NewDecrypter(key.N, key.D)
}

// FromHex parses a modulus and exponent written as hexadecimal strings.
func FromHex(modulus, exponent string) (*Decrypter, error) {
	n, ok := new(big.Int).SetString(modulus, 16)
	if !ok {
		return nil, errors.New("rsa: invalid modulus")
	}
	e, ok := new(big.Int).SetString(exponent, 16)
	if !ok {
		return nil, errors.New("rsa: invalid exponent")
	}
	return NewDecrypter(n, e)
}

// Decrypt returns ciphertext^d mod n as a minimal big-endian byte slice.
func (d *Decrypter) Decrypt(ciphertext []byte) ([]byte, error) {
	c := new(big.Int).SetBytes(ciphertext)
	if c.Cmp(d.Modulus) >= 0 {
		return nil, errors.New("rsa: ciphertext out of range")
	}
	return new(big.Int).Exp(c, d.Exponent, d.Modulus).Bytes(), nil
}

// Encrypter is the client half, used by probes and tests.
type Encrypter struct {
	Modulus  *big.Int
	Exponent *big.Int
}

func NewEncrypter(pub *stdrsa.PublicKey) *Encrypter {
	return &Encrypter{Modulus: pub.N, Exponent: big.NewInt(int64(pub.E))}
}

func (e *Encrypter) Encrypt(plaintext []byte) ([]byte, error) {
	m := new(big.Int).SetBytes(plaintext)
	if m.Cmp(e.Modulus) >= 0 {
		return nil, errors.New("rsa: plaintext too large for modulus")
	}
	return new(big.Int).Exp(m, e.Exponent, e.Modulus).Bytes(), nil
}

// LoadPrivateKeyPEM reads a PKCS#1 or PKCS#8 RSA private key.
func LoadPrivateKeyPEM(path string) (*stdrsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return ParsePrivateKeyPEM(data)
}

func ParsePrivateKeyPEM(data []byte) (*stdrsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("rsa: no PEM block found")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("rsa: parse private key: %w", err)
	}
	key, ok := parsed.(*stdrsa.PrivateKey)
	if !ok {
		return nil, errors.New("rsa: PEM key is not RSA")
	}
	return key, nil
}

// LoadPublicKeyPEM reads an RSA public key in PKIX or PKCS#1 form. A private
// key file is accepted too and its public half returned.
func LoadPublicKeyPEM(path string) (*stdrsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return ParsePublicKeyPEM(data)
}

func ParsePublicKeyPEM(data []byte) (*stdrsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("rsa: no PEM block found")
	}

	switch block.Type {
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	case "PUBLIC KEY":
		parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("rsa: parse public key: %w", err)
		}
		key, ok := parsed.(*stdrsa.PublicKey)
		if !ok {
			return nil, errors.New("rsa: PEM key is not RSA")
		}
		return key, nil
	}

	priv, err := ParsePrivateKeyPEM(data)
	if err != nil {
		return nil, err
	}
	return &priv.PublicKey, nil
}
