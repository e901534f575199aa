package login

import (
	"golang.org/x/crypto/cryptobyte"

	"login_gateway/internal/model"
)

// decryptSecureBlock decrypts the RSA block and parses the layout chosen by
// the frame kind. Every branch consumes exactly its own fields.
func (d *Decoder) decryptSecureBlock(ciphertext []byte, kind model.FrameKind) (*model.SecureBlock, error) {
	plain, err := d.rsa.Decrypt(ciphertext)
	if err != nil {
		return nil, Wrap(KindProtocolViolation, "decrypt secure block", err)
	}

	s := cryptobyte.String(plain)
	var block model.SecureBlock
	if !s.ReadUint8(&block.Check) {
		return nil, violation("empty secure block")
	}
	if block.Check != model.SecureCheck {
		return nil, violation("secure block check mismatch")
	}

	var sessionKey uint64
	if !readSeed(&s, &block.Seed) || !s.ReadUint64(&sessionKey) {
		return nil, violation("truncated secure block")
	}
	block.SessionKey = int64(sessionKey)

	switch kind {
	case model.FrameReconnecting:
		var rb model.ReconnectBlock
		if !readSeed(&s, &rb.PreviousSeed) {
			return nil, violation("truncated previous seed")
		}
		block.Variant = rb
	default:
		fb, ok := readFreshBlock(&s)
		if !ok {
			return nil, violation("truncated login secure block")
		}
		block.Variant = fb
	}

	return &block, nil
}

func readFreshBlock(s *cryptobyte.String) (model.FreshBlock, bool) {
	var fb model.FreshBlock
	var kind uint8
	if !s.ReadUint8(&kind) {
		return fb, false
	}
	fb.AuthKind = model.AuthKind(kind)

	var code uint32
	switch {
	case fb.AuthKind == model.AuthAuthenticator:
		if !s.ReadUint32(&code) {
			return fb, false
		}
	case fb.AuthKind.ShortCode():
		if !s.ReadUint24(&code) || !s.Skip(1) {
			return fb, false
		}
	default:
		if !s.ReadUint32(&code) {
			return fb, false
		}
	}
	fb.AuthCode = int32(code)

	if !s.Skip(1) {
		return fb, false
	}
	password, ok := readString(s)
	if !ok {
		return fb, false
	}
	fb.Password = password
	return fb, true
}

func readSeed(s *cryptobyte.String, seed *[4]int32) bool {
	for i := range seed {
		var v uint32
		if !s.ReadUint32(&v) {
			return false
		}
		seed[i] = int32(v)
	}
	return true
}
