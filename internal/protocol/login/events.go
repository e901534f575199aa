package login

import "login_gateway/internal/model"

// EventSink receives one event per finished handshake. Implementations must
// not block the connection for long; they are called inline.
type EventSink interface {
	Emit(ev model.LoginEvent)
}

type SinkFunc func(ev model.LoginEvent)

func (f SinkFunc) Emit(ev model.LoginEvent) { f(ev) }

// Sinks fans an event out to every sink in order.
type Sinks []EventSink

func (s Sinks) Emit(ev model.LoginEvent) {
	for _, sink := range s {
		if sink != nil {
			sink.Emit(ev)
		}
	}
}

type nopSink struct{}

func (nopSink) Emit(model.LoginEvent) {}
