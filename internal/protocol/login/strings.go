package login

import (
	"bytes"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/text/encoding/charmap"
)

// StringTerminator ends every protocol string.
const StringTerminator = 10

// readString consumes a terminated Windows-1252 string and returns it as UTF-8.
func readString(s *cryptobyte.String) (string, bool) {
	idx := bytes.IndexByte(*s, StringTerminator)
	if idx < 0 {
		return "", false
	}
	var raw []byte
	if !s.ReadBytes(&raw, idx) || !s.Skip(1) {
		return "", false
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	return string(decoded), true
}

func addString(b *cryptobyte.Builder, v string) {
	encoded, err := charmap.Windows1252.NewEncoder().String(v)
	if err != nil {
		b.SetError(err)
		return
	}
	if bytes.IndexByte([]byte(encoded), StringTerminator) >= 0 {
		b.SetError(errTerminatorInString)
		return
	}
	b.AddBytes([]byte(encoded))
	b.AddUint8(StringTerminator)
}
