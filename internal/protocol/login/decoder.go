package login

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"login_gateway/internal/cryptographic/isaac"
	"login_gateway/internal/cryptographic/xtea"
	"login_gateway/internal/model"
	"login_gateway/internal/protocol/version"
)

type (
	// AsymmetricDecrypter reverses the client's encryption of the secure block.
	AsymmetricDecrypter interface {
		Decrypt(ciphertext []byte) ([]byte, error)
	}

	// StreamDecipher decrypts buf in place with the session seed.
	StreamDecipher func(buf []byte, key [4]int32) error

	// GeneratorFactory seeds one direction's keystream.
	GeneratorFactory func(seed [4]int32) *isaac.Generator

	Option func(*Decoder)
)

// Decoder turns login frames into LoginRequests. It holds only collaborators,
// so one Decoder serves every connection; per-connection progress lives in State.
type Decoder struct {
	rsa          AsymmetricDecrypter
	decipher     StreamDecipher
	newGenerator GeneratorFactory
	version      version.Comparator
	sink         EventSink
	now          func() time.Time
}

func WithStreamDecipher(f StreamDecipher) Option {
	return func(d *Decoder) { d.decipher = f }
}

func WithGeneratorFactory(f GeneratorFactory) Option {
	return func(d *Decoder) { d.newGenerator = f }
}

func WithEventSink(s EventSink) Option {
	return func(d *Decoder) { d.sink = s }
}

func WithClock(now func() time.Time) Option {
	return func(d *Decoder) { d.now = now }
}

func NewDecoder(rsa AsymmetricDecrypter, comparator version.Comparator, opts ...Option) *Decoder {
	d := &Decoder{
		rsa:          rsa,
		decipher:     xtea.Decipher,
		newGenerator: isaac.New,
		version:      comparator,
		sink:         nopSink{},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode advances st using the unread bytes in in. It returns (nil, nil) when
// more bytes are needed; in that case neither st nor in has changed past the
// last completed stage, and Decode may be called again once more bytes arrive.
// A non-nil *Error is terminal and st moves to Done.
func (d *Decoder) Decode(st *State, in *bytes.Buffer) (*model.LoginRequest, error) {
	for {
		switch st.Phase {
		case AwaitingHeader:
			ok, err := d.decodeHeader(st, in)
			if err != nil {
				st.Phase = Done
				return nil, err
			}
			if !ok {
				return nil, nil
			}
		case AwaitingPayload:
			if in.Len() < int(st.PayloadLength) {
				return nil, nil
			}
			payload := bytes.Clone(in.Next(int(st.PayloadLength)))
			st.Phase = Done
			return d.decodePayload(st, payload)
		default:
			return nil, ErrFinished
		}
	}
}

// Process runs Decode and answers the client on rejection: one status byte,
// then conn is closed. The rejection error is returned so the caller stops
// reading. Accepted requests are returned without writing anything.
func (d *Decoder) Process(st *State, in *bytes.Buffer, conn Conn) (*model.LoginRequest, error) {
	req, err := d.Decode(st, in)
	if err != nil {
		var le *Error
		if !errors.As(err, &le) {
			return nil, err
		}

		status := le.Status()
		d.sink.Emit(model.LoginEvent{
			Kind:         model.EventRejected,
			Address:      st.Address,
			Status:       status,
			StatusName:   status.String(),
			Reason:       le.Kind.String(),
			Reconnecting: st.Reconnecting(),
			At:           d.now(),
		})
		if rerr := Respond(conn, status); rerr != nil {
			return nil, fmt.Errorf("respond %s: %w", status, errors.Join(err, rerr))
		}
		return nil, err
	}

	if req != nil {
		d.sink.Emit(model.LoginEvent{
			Kind:         model.EventAccepted,
			Username:     req.Credentials.Username,
			Address:      req.Credentials.Address,
			Reconnecting: req.Reconnecting,
			At:           d.now(),
		})
	}
	return req, nil
}
