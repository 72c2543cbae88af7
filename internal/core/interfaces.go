package core

import "github.com/minwoo-dev/talklink/internal/domain"

// Frame is a marshalled outbound event.
type Frame []byte

// SignalConnection abstracts one client's messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// Dispatcher fans events out to live connections. The websocket hub
// implements it; the engine never touches transports directly.
type Dispatcher interface {
	Unicast(id domain.ConnID, v any)
	Multicast(ids []domain.ConnID, v any)
	All(v any)
}

// NopDispatcher drops everything. Useful before the hub is wired and in tests.
type NopDispatcher struct{}

func (NopDispatcher) Unicast(domain.ConnID, any)     {}
func (NopDispatcher) Multicast([]domain.ConnID, any) {}
func (NopDispatcher) All(any)                        {}
