package rsa

import (
	"bytes"
	"crypto/rand"
	stdrsa "crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
)

func testKey(t *testing.T) *stdrsa.PrivateKey {
	t.Helper()
	key, err := stdrsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	return key
}

func TestDecryptInvertsEncrypt(t *testing.T) {
	key := testKey(t)
	dec, err := FromPrivateKey(key)
	if err != nil {
		t.Fatalf("FromPrivateKey: %v", err)
	}
	enc := NewEncrypter(&key.PublicKey)

	plain := []byte{1, 0, 0, 0, 10, 0xff, 0x80, 'p', 'w'}
	ct, err := enc.Encrypt(plain)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	got, err := dec.Decrypt(ct)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Fatalf("Decrypt = %x, want %x", got, plain)
	}
}

func TestDecryptRejectsOutOfRange(t *testing.T) {
	key := testKey(t)
	dec, _ := FromPrivateKey(key)
	if _, err := dec.Decrypt(bytes.Repeat([]byte{0xff}, 200)); err == nil {
		t.Fatalf("expected error for ciphertext larger than modulus")
	}
}

func TestFromHex(t *testing.T) {
	if _, err := FromHex("zz", "10001"); err == nil {
		t.Fatalf("expected error for bad modulus")
	}
	d, err := FromHex("c5", "11")
	if err != nil {
		t.Fatalf("FromHex: %v", err)
	}
	if d.Modulus.Int64() != 0xc5 || d.Exponent.Int64() != 0x11 {
		t.Fatalf("parsed %v %v", d.Modulus, d.Exponent)
	}
}

func TestLoadPrivateKeyPEM(t *testing.T) {
	key := testKey(t)
	dir := t.TempDir()

	pkcs1 := filepath.Join(dir, "pkcs1.pem")
	if err := os.WriteFile(pkcs1, pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}), 0o600); err != nil {
		t.Fatal(err)
	}

	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}
	pkcs8 := filepath.Join(dir, "pkcs8.pem")
	if err := os.WriteFile(pkcs8, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, p := range []string{pkcs1, pkcs8} {
		got, err := LoadPrivateKeyPEM(p)
		if err != nil {
			t.Fatalf("LoadPrivateKeyPEM(%s): %v", filepath.Base(p), err)
		}
		if got.N.Cmp(key.N) != 0 {
			t.Fatalf("%s: modulus mismatch", filepath.Base(p))
		}
	}

	if _, err := ParsePrivateKeyPEM([]byte("not pem")); err == nil {
		t.Fatalf("expected error for non-PEM input")
	}
}

func TestParsePublicKeyPEM(t *testing.T) {
	key := testKey(t)
	pkix, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatal(err)
	}

	inputs := map[string][]byte{
		"pkix":    pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pkix}),
		"pkcs1":   pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: x509.MarshalPKCS1PublicKey(&key.PublicKey)}),
		"private": pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}),
	}
	for name, data := range inputs {
		got, err := ParsePublicKeyPEM(data)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got.N.Cmp(key.N) != 0 || got.E != key.E {
			t.Fatalf("%s: key mismatch", name)
		}
	}
}
