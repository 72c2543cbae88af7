// Package orch hosts the room lifecycle engine: every room-mutating
// operation funnels through one serialized owner, per the single-writer
// model. Ledger reads are the only suspension points and happen outside
// the lock.
package orch

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/minwoo-dev/talklink/internal/app"
	"github.com/minwoo-dev/talklink/internal/core"
	"github.com/minwoo-dev/talklink/internal/domain"
	"github.com/minwoo-dev/talklink/internal/metrics"
	"github.com/minwoo-dev/talklink/internal/repo"
)

type Deps struct {
	Registry *app.Registry
	Rooms    *app.Directory
	Store    repo.Store
	Settler  *app.Settler
	Clock    app.Clock
	Dispatch core.Dispatcher
	Metrics  *metrics.Metrics

	// ConferenceAppID is handed to clients on join so they can attach to
	// the external media plane. The engine never touches media itself.
	ConferenceAppID string
}

type Engine struct {
	mu sync.Mutex

	registry *app.Registry
	rooms    *app.Directory
	store    repo.Store
	settler  *app.Settler
	clock    app.Clock
	dispatch core.Dispatcher
	metrics  *metrics.Metrics

	conferenceAppID string
}

func New(d Deps) *Engine {
	return &Engine{
		registry:        d.Registry,
		rooms:           d.Rooms,
		store:           d.Store,
		settler:         d.Settler,
		clock:           d.Clock,
		dispatch:        d.Dispatch,
		metrics:         d.Metrics,
		conferenceAppID: d.ConferenceAppID,
	}
}

// SetDispatcher wires the hub after construction; the hub needs the
// engine and the engine needs the hub.
func (e *Engine) SetDispatcher(d core.Dispatcher) { e.dispatch = d }

// Connect registers a fresh connection as anonymous and pushes the online
// snapshot to it and to everyone else.
func (e *Engine) Connect(id domain.ConnID) {
	e.registry.Connect(id, e.clock.Now())
	snap := e.registry.OnlineSnapshot()
	e.dispatch.Unicast(id, snap)
	e.dispatch.All(snap)
}

// Authenticate binds a user identity to a connection. Idempotent; a prior
// connection of the same user is superseded. The user row upsert is
// best-effort: presence must not depend on storage availability.
func (e *Engine) Authenticate(ctx context.Context, id domain.ConnID, user *domain.User) {
	e.registry.Authenticate(id, user)
	if err := e.store.UpsertUser(ctx, *user); err != nil {
		log.Error().Err(err).Str("module", "orch").Int64("user", int64(user.ID)).Msg("user upsert failed")
		e.metrics.Errors.WithLabelValues("orch").Inc()
	}
	e.dispatch.All(e.registry.OnlineSnapshot())
}

// Disconnect runs the unified departure path, then drops the presence
// entry and re-broadcasts the online count.
func (e *Engine) Disconnect(ctx context.Context, id domain.ConnID) {
	e.Depart(ctx, id, true)
	e.registry.Disconnect(id)
	e.dispatch.All(e.registry.OnlineSnapshot())
}

// SendRoomList answers a getRooms request with below-capacity rooms only.
func (e *Engine) SendRoomList(id domain.ConnID) {
	e.dispatch.Unicast(id, core.RoomListEvent{Type: "roomList", Rooms: e.rooms.ListOpen()})
}

// SendOnlineCount answers a getOnlineCount request.
func (e *Engine) SendOnlineCount(id domain.ConnID) {
	e.dispatch.Unicast(id, e.registry.OnlineSnapshot())
}
