package model

// Status is the single response byte written back to a connecting client.
type Status uint8

const (
	StatusOK                         Status = 2
	StatusInvalidCredentials         Status = 3
	StatusAccountDisabled            Status = 4
	StatusAccountOnline              Status = 5
	StatusGameUpdated                Status = 6
	StatusServerFull                 Status = 7
	StatusLoginServerOffline         Status = 8
	StatusTooManyConnections         Status = 9
	StatusBadSessionID               Status = 10
	StatusLoginServerRejectedSession Status = 11
	StatusCouldNotComplete           Status = 13
	StatusUpdating                   Status = 14
	StatusReconnectionOK             Status = 15
)

var statusNames = map[Status]string{
	StatusOK:                         "ok",
	StatusInvalidCredentials:         "invalid_credentials",
	StatusAccountDisabled:            "account_disabled",
	StatusAccountOnline:              "account_online",
	StatusGameUpdated:                "game_updated",
	StatusServerFull:                 "server_full",
	StatusLoginServerOffline:         "login_server_offline",
	StatusTooManyConnections:         "too_many_connections",
	StatusBadSessionID:               "bad_session_id",
	StatusLoginServerRejectedSession: "session_rejected",
	StatusCouldNotComplete:           "could_not_complete",
	StatusUpdating:                   "updating",
	StatusReconnectionOK:             "reconnection_ok",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "unknown"
}

// Accepted reports whether the status lets the client into the game.
func (s Status) Accepted() bool {
	return s == StatusOK || s == StatusReconnectionOK
}
