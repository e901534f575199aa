package model

import (
	"time"

	"login_gateway/internal/cryptographic/isaac"
)

type (
	// Session is the cached record of an accepted login, used to validate
	// reconnects and served by the ops API.
	Session struct {
		Username  string    `msgpack:"u" json:"username"`
		Address   string    `msgpack:"a" json:"address"`
		Release   uint32    `msgpack:"r" json:"release"`
		LowMemory bool      `msgpack:"l" json:"low_memory"`
		Client    string    `msgpack:"c" json:"client"`
		LoginAt   time.Time `msgpack:"t" json:"login_at"`
		Seed      [4]int32  `msgpack:"s" json:"-"`
	}
)

// LiveSession is a connection that passed authentication and now owns its
// cipher pair.
type LiveSession struct {
	Username     string
	Address      string
	Reconnecting bool
	Ciphers      isaac.Pair
	Since        time.Time
}
