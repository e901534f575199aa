package login

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/crypto/cryptobyte"

	"login_gateway/internal/cryptographic/xtea"
	"login_gateway/internal/model"
)

var errTerminatorInString = errors.New("login: string contains the terminator byte")

// Encrypter is the client's half of AsymmetricDecrypter.
type Encrypter interface {
	Encrypt(plaintext []byte) ([]byte, error)
}

// ClientFrame describes a login frame from the client's side. Probes and tests
// build frames with it; the gateway never encodes logins.
type ClientFrame struct {
	Kind            model.FrameKind
	Release         uint32
	ProtocolVersion uint32
	ClientType      model.ClientType
	Secure          model.SecureBlock

	Username       string
	LowMemory      bool
	Resizable      bool
	FrameWidth     int16
	FrameHeight    int16
	InstallRandom  [model.InstallRandomSize]byte
	AreaKey        string
	OpaqueID       int32
	VersionBlock   []byte
	ScriptsEnabled bool
	Checksums      [model.ChecksumsSent]int32
}

// Encode builds header and payload: the secure block is encrypted with enc and
// the remainder enciphered with the block's seed.
func (f *ClientFrame) Encode(enc Encrypter) ([]byte, error) {
	plain, err := f.secureBlock()
	if err != nil {
		return nil, err
	}
	secure, err := enc.Encrypt(plain)
	if err != nil {
		return nil, fmt.Errorf("encrypt secure block: %w", err)
	}

	rest, err := f.remainder()
	if err != nil {
		return nil, err
	}
	if err := xtea.Encipher(rest, f.Secure.Seed); err != nil {
		return nil, err
	}

	var p cryptobyte.Builder
	p.AddUint32(f.Release)
	p.AddUint32(f.ProtocolVersion)
	p.AddUint8(uint8(f.ClientType))
	p.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(secure)
	})
	p.AddBytes(rest)
	payload, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("build payload: %w", err)
	}
	if len(payload) > math.MaxUint16 {
		return nil, errors.New("login: payload exceeds 65535 bytes")
	}

	var h cryptobyte.Builder
	h.AddUint8(uint8(f.Kind))
	h.AddUint16(uint16(len(payload)))
	h.AddBytes(payload)
	return h.Bytes()
}

func (f *ClientFrame) secureBlock() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddUint8(f.Secure.Check)
	addSeed(&b, f.Secure.Seed)
	b.AddUint64(uint64(f.Secure.SessionKey))

	switch v := f.Secure.Variant.(type) {
	case model.ReconnectBlock:
		addSeed(&b, v.PreviousSeed)
	case model.FreshBlock:
		b.AddUint8(uint8(v.AuthKind))
		switch {
		case v.AuthKind == model.AuthAuthenticator:
			b.AddUint32(uint32(v.AuthCode))
		case v.AuthKind.ShortCode():
			b.AddUint24(uint32(v.AuthCode) & 0xffffff)
			b.AddUint8(0)
		default:
			b.AddUint32(uint32(v.AuthCode))
		}
		b.AddUint8(0)
		addString(&b, v.Password)
	default:
		return nil, errors.New("login: secure block has no variant")
	}
	return b.Bytes()
}

func (f *ClientFrame) remainder() ([]byte, error) {
	var b cryptobyte.Builder
	addString(&b, f.Username)

	var flags uint8
	if f.LowMemory {
		flags |= flagLowMemory
	}
	if f.Resizable {
		flags |= flagResizable
	}
	b.AddUint8(flags)
	b.AddUint16(uint16(f.FrameWidth))
	b.AddUint16(uint16(f.FrameHeight))
	b.AddBytes(f.InstallRandom[:])
	addString(&b, f.AreaKey)
	b.AddUint32(uint32(f.OpaqueID))
	b.AddBytes(f.VersionBlock)
	if f.ScriptsEnabled {
		b.AddUint8(scriptsEnabledOn)
	} else {
		b.AddUint8(0)
	}
	for _, crc := range f.Checksums {
		b.AddUint32(uint32(crc))
	}
	return b.Bytes()
}

func addSeed(b *cryptobyte.Builder, seed [4]int32) {
	for _, v := range seed {
		b.AddUint32(uint32(v))
	}
}
