package login

import "login_gateway/internal/model"

type Phase uint8

const (
	AwaitingHeader Phase = iota
	AwaitingPayload
	// Done is terminal: the frame was accepted or the connection rejected.
	Done
)

func (p Phase) String() string {
	switch p {
	case AwaitingHeader:
		return "awaiting_header"
	case AwaitingPayload:
		return "awaiting_payload"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// State is everything a connection's decode carries between byte arrivals.
// It is owned by the connection's goroutine and passed into every Decode
// call; it holds no locks and must not be shared.
type State struct {
	Phase         Phase
	Kind          model.FrameKind
	PayloadLength uint16
	// Address is the client's host, recorded in the credentials.
	Address string
}

func NewState(address string) *State {
	return &State{Phase: AwaitingHeader, Address: address}
}

func (s *State) Reconnecting() bool {
	return s.Kind == model.FrameReconnecting
}
