package login

import (
	"unicode/utf8"

	"golang.org/x/crypto/cryptobyte"

	"login_gateway/internal/model"
)

const (
	MinPasswordLength = 4
	MaxPasswordLength = 20
	MaxUsernameLength = 12

	clientTypeMask   = 0x3
	flagLowMemory    = 0x1
	flagResizable    = 0x2
	scriptsEnabledOn = 1
)

// decodePayload parses one complete payload. payload is owned by this call and
// is deciphered in place.
func (d *Decoder) decodePayload(st *State, payload []byte) (*model.LoginRequest, error) {
	s := cryptobyte.String(payload)

	meta := model.ClientMetadata{}
	var clientByte uint8
	var secure cryptobyte.String
	if !s.ReadUint32(&meta.Release) ||
		!s.ReadUint32(&meta.ProtocolVersion) ||
		!s.ReadUint8(&clientByte) ||
		!s.ReadUint16LengthPrefixed(&secure) {
		return nil, violation("truncated payload prefix")
	}
	meta.ClientType = model.ClientType(clientByte & clientTypeMask)

	block, err := d.decryptSecureBlock(secure, st.Kind)
	if err != nil {
		return nil, err
	}

	// Everything after the secure block is stream-enciphered up to the end of
	// the payload.
	if err := d.decipher([]byte(s), block.Seed); err != nil {
		return nil, Wrap(KindProtocolViolation, "decipher payload", err)
	}

	creds, err := readCredentials(&s, block)
	if err != nil {
		return nil, err
	}
	creds.Address = st.Address

	if err := d.readMetadata(&s, &meta); err != nil {
		return nil, err
	}

	var previous [4]int32
	if rb, ok := block.Variant.(model.ReconnectBlock); ok {
		previous = rb.PreviousSeed
	}

	return &model.LoginRequest{
		Credentials:     creds,
		Ciphers:         derivePair(d.newGenerator, block.Seed),
		Reconnecting:    st.Reconnecting(),
		PreviousSeed:    previous,
		LowMemory:       meta.LowMemory,
		Release:         meta.Release,
		Checksums:       meta.Checksums,
		ProtocolVersion: meta.ProtocolVersion,
		Metadata:        meta,
	}, nil
}

func readCredentials(s *cryptobyte.String, block *model.SecureBlock) (model.Credentials, error) {
	username, ok := readString(s)
	if !ok {
		return model.Credentials{}, violation("truncated username")
	}

	_, reconnect := block.Variant.(model.ReconnectBlock)
	password := block.Password()
	if !validCredentials(username, password, reconnect) {
		return model.Credentials{}, New(KindInvalidCredentials, "username or password failed validation")
	}

	return model.Credentials{
		Username: username,
		Password: password,
	}, nil
}

// validCredentials applies the length rules. Reconnects carry no password, so
// only the username is checked for them.
func validCredentials(username, password string, reconnect bool) bool {
	u := utf8.RuneCountInString(username)
	if u == 0 || u > MaxUsernameLength {
		return false
	}
	if reconnect {
		return password == ""
	}
	p := utf8.RuneCountInString(password)
	return p >= MinPasswordLength && p <= MaxPasswordLength
}

func (d *Decoder) readMetadata(s *cryptobyte.String, meta *model.ClientMetadata) error {
	var flags uint8
	var width, height uint16
	if !s.ReadUint8(&flags) ||
		!s.ReadUint16(&width) ||
		!s.ReadUint16(&height) ||
		!s.CopyBytes(meta.InstallRandom[:]) {
		return violation("truncated client properties")
	}
	meta.LowMemory = flags&flagLowMemory != 0
	meta.Resizable = flags&flagResizable != 0
	meta.FrameWidth = int16(width)
	meta.FrameHeight = int16(height)

	areaKey, ok := readString(s)
	if !ok {
		return violation("truncated area key")
	}
	meta.AreaKey = areaKey

	var opaque uint32
	if !s.ReadUint32(&opaque) {
		return violation("truncated client id")
	}
	meta.OpaqueID = int32(opaque)

	if !d.version.Compare(s) {
		return New(KindVersionMismatch, "client version mismatch")
	}

	var scripts uint8
	if !s.ReadUint8(&scripts) {
		return violation("truncated scripts flag")
	}
	meta.ScriptsEnabled = scripts == scriptsEnabledOn

	for i := 0; i < model.ChecksumsSent; i++ {
		var crc uint32
		if !s.ReadUint32(&crc) {
			return violation("truncated checksums")
		}
		meta.Checksums[i] = int32(crc)
	}
	return nil
}
