package login

import (
	"errors"
	"io"

	"login_gateway/internal/model"
)

// Conn is the part of a client connection the decoder writes to.
type Conn interface {
	io.Writer
	io.Closer
}

// Respond writes the single status byte and closes conn once the write has
// returned. Nothing else is written.
func Respond(conn Conn, status model.Status) error {
	_, werr := conn.Write([]byte{byte(status)})
	cerr := conn.Close()
	return errors.Join(werr, cerr)
}
