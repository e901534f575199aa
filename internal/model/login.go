package model

import "login_gateway/internal/cryptographic/isaac"

// FrameKind is the first byte of a login frame.
type FrameKind uint8

const (
	FrameStandard     FrameKind = 16
	FrameReconnecting FrameKind = 18
)

func (k FrameKind) Valid() bool {
	return k == FrameStandard || k == FrameReconnecting
}

type ClientType uint8

const (
	ClientDesktop ClientType = iota
	ClientAndroid
	ClientIOS
)

func (t ClientType) String() string {
	switch t {
	case ClientDesktop:
		return "desktop"
	case ClientAndroid:
		return "android"
	case ClientIOS:
		return "ios"
	default:
		return "unknown"
	}
}

const (
	// ChecksumSlots is the length of the checksum list handed downstream.
	ChecksumSlots = 20
	// ChecksumsSent is how many checksums the client actually writes; the
	// remaining slots stay zero.
	ChecksumsSent = 9

	InstallRandomSize = 24
)

type (
	FrameHeader struct {
		Kind          FrameKind
		PayloadLength uint16
	}

	Credentials struct {
		Username     string
		Password     string // empty when reconnecting
		UsernameHash int32
		DisplayID    int32
		Address      string
	}

	ClientMetadata struct {
		Release         uint32
		ProtocolVersion uint32
		ClientType      ClientType
		LowMemory       bool
		Resizable       bool
		FrameWidth      int16
		FrameHeight     int16
		InstallRandom   [InstallRandomSize]byte
		AreaKey         string
		OpaqueID        int32
		ScriptsEnabled  bool
		Checksums       [ChecksumSlots]int32
	}

	// LoginRequest is the only value produced by a successful login decode.
	LoginRequest struct {
		Credentials     Credentials
		Ciphers         isaac.Pair
		Reconnecting    bool
		// PreviousSeed is the seed of the session being resumed; zero unless
		// Reconnecting.
		PreviousSeed    [4]int32
		LowMemory       bool
		Release         uint32
		Checksums       [ChecksumSlots]int32
		ProtocolVersion uint32
		Metadata        ClientMetadata
	}
)
