package login

import (
	"bytes"
	"encoding/binary"

	"login_gateway/internal/model"
)

// HeaderSize is the frame kind byte plus the u16 payload length.
const HeaderSize = 3

// decodeHeader reports false without consuming anything until HeaderSize bytes
// are buffered. An unknown kind consumes only the kind byte.
func (d *Decoder) decodeHeader(st *State, in *bytes.Buffer) (bool, error) {
	if in.Len() < HeaderSize {
		return false, nil
	}

	kind := model.FrameKind(in.Next(1)[0])
	if !kind.Valid() {
		return false, violation("unknown frame kind")
	}

	st.Kind = kind
	st.PayloadLength = binary.BigEndian.Uint16(in.Next(2))
	st.Phase = AwaitingPayload
	return true, nil
}
