package login

import (
	stderrors "errors"

	"login_gateway/internal/model"
)

// ErrKind classifies why a handshake was refused. Every kind is terminal for
// the connection.
type ErrKind uint8

const (
	// KindProtocolViolation covers unknown frame kinds, a bad secure check
	// byte and any malformed or truncated field inside a complete frame.
	KindProtocolViolation ErrKind = iota + 1
	KindInvalidCredentials
	KindVersionMismatch
)

func (k ErrKind) String() string {
	switch k {
	case KindProtocolViolation:
		return "protocol_violation"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindVersionMismatch:
		return "version_mismatch"
	default:
		return "unknown"
	}
}

// ErrFinished is returned when a State that already reached a terminal
// outcome is decoded again.
var ErrFinished = stderrors.New("login: handshake already finished")

type Error struct {
	Kind  ErrKind
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Inner == nil {
		return "login: " + e.Msg
	}
	return "login: " + e.Msg + ": " + e.Inner.Error()
}

func (e *Error) Unwrap() error { return e.Inner }

// Status is the response byte sent to the client for this error.
func (e *Error) Status() model.Status {
	switch e.Kind {
	case KindInvalidCredentials:
		return model.StatusInvalidCredentials
	case KindVersionMismatch:
		return model.StatusGameUpdated
	default:
		return model.StatusLoginServerRejectedSession
	}
}

func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Wrap(kind ErrKind, msg string, inner error) *Error {
	return &Error{Kind: kind, Msg: msg, Inner: inner}
}

func IsKind(err error, kind ErrKind) bool {
	var le *Error
	if stderrors.As(err, &le) {
		return le.Kind == kind
	}
	return false
}

func violation(msg string) *Error {
	return New(KindProtocolViolation, msg)
}
