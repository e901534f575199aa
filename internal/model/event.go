package model

import "time"

type EventKind string

const (
	EventAccepted      EventKind = "accepted"
	EventRejected      EventKind = "rejected"
	EventAuthenticated EventKind = "authenticated"
	EventDenied        EventKind = "denied"
	EventDisconnected  EventKind = "disconnected"
)

type (
	// LoginEvent is what the gateway reports about a connection's handshake.
	LoginEvent struct {
		Kind         EventKind `json:"kind"`
		Username     string    `json:"username,omitempty"`
		Address      string    `json:"address,omitempty"`
		Status       Status    `json:"status,omitempty"`
		StatusName   string    `json:"status_name,omitempty"`
		Reason       string    `json:"reason,omitempty"`
		Reconnecting bool      `json:"reconnecting,omitempty"`
		At           time.Time `json:"at"`
	}
)
