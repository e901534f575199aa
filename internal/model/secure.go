package model

// SecureCheck is the first byte of every decrypted secure block.
const SecureCheck = 1

// AuthKind says how the fresh-login secure block encodes its auth code.
type AuthKind uint8

const (
	AuthTrustedComputer      AuthKind = 0
	AuthAuthenticator        AuthKind = 1
	AuthTrustedAuthenticator AuthKind = 2
	AuthRegular              AuthKind = 3
)

// ShortCode reports whether the auth code is written as 24 bits plus a pad byte.
func (k AuthKind) ShortCode() bool {
	return k == AuthTrustedComputer || k == AuthTrustedAuthenticator
}

type (
	// SecureBlock is the asymmetrically encrypted part of a login payload.
	// Exactly one of ReconnectBlock and FreshBlock is carried in Variant.
	SecureBlock struct {
		Check      uint8
		Seed       [4]int32
		SessionKey int64
		Variant    SecureVariant
	}

	SecureVariant interface {
		secureVariant()
	}

	ReconnectBlock struct {
		PreviousSeed [4]int32
	}

	FreshBlock struct {
		AuthKind AuthKind
		AuthCode int32
		Password string
	}
)

func (ReconnectBlock) secureVariant() {}
func (FreshBlock) secureVariant()     {}

// Password returns the password carried by the block, or "" on reconnect.
func (b *SecureBlock) Password() string {
	if f, ok := b.Variant.(FreshBlock); ok {
		return f.Password
	}
	return ""
}
