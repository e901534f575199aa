package version

import "golang.org/x/crypto/cryptobyte"

// Comparator consumes the client's version block from s and reports whether
// the client is current. It must leave s positioned after the block.
type Comparator interface {
	Compare(s *cryptobyte.String) bool
}

// MachineInfo expects
//
//	u8  version
//	u16 length
//	[length]byte info
//
// and accepts the client when version equals Version.
type MachineInfo struct {
	Version uint8
}

func (m MachineInfo) Compare(s *cryptobyte.String) bool {
	var version uint8
	var info cryptobyte.String
	if !s.ReadUint8(&version) || !s.ReadUint16LengthPrefixed(&info) {
		return false
	}
	return version == m.Version
}

// Append writes a MachineInfo block; client tooling uses it to build frames.
func (m MachineInfo) Append(b *cryptobyte.Builder, info []byte) {
	b.AddUint8(m.Version)
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(info)
	})
}
