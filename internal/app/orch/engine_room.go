package orch

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/minwoo-dev/talklink/internal/app"
	"github.com/minwoo-dev/talklink/internal/core"
	"github.com/minwoo-dev/talklink/internal/domain"
)

// CreateRoom opens a room and auto-joins the creator as host; the room is
// waiting for a guest from this moment on.
func (e *Engine) CreateRoom(id domain.ConnID, spec domain.RoomSpec) error {
	e.mu.Lock()
	user, ok := e.registry.UserOf(id)
	if !ok {
		e.mu.Unlock()
		return domain.ErrNotAuthenticated
	}
	if _, ok := e.rooms.FindByConn(id); ok {
		e.mu.Unlock()
		return domain.ErrAlreadyInRoom
	}

	now := e.clock.Now()
	room, err := domain.NewRoom(app.NewRoomID(now), user, spec, now)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	host := domain.Participant{UserID: user.ID, Nickname: user.Nickname, ConnID: id, IsHost: true}
	state := core.NewRoomState(room, host)
	e.rooms.Put(state)
	e.registry.SetRoom(id, room.ID)
	snap := state.Snapshot()
	e.mu.Unlock()

	log.Info().Str("module", "orch").Str("room", string(room.ID)).Str("title", room.Title).Int64("host", int64(user.ID)).Str("call_type", string(room.CallType)).Msg("room created")
	e.dispatch.Unicast(id, core.RoomCreatedEvent{Type: "roomCreated", RoomID: room.ID})
	e.dispatch.All(core.RoomListUpdatedEvent{Type: "roomListUpdated", Room: snap})
	return nil
}

// JoinRoom admits a guest. The balance read awaits external storage, so
// capacity is re-validated atomically with the participant append
// afterwards; two guests racing for the last slot resolve to one winner.
func (e *Engine) JoinRoom(ctx context.Context, id domain.ConnID, roomID domain.RoomID, password string) error {
	e.mu.Lock()
	user, ok := e.registry.UserOf(id)
	if !ok {
		e.mu.Unlock()
		return domain.ErrNotAuthenticated
	}
	if _, ok := e.rooms.FindByConn(id); ok {
		e.mu.Unlock()
		return domain.ErrAlreadyInRoom
	}
	state, ok := e.rooms.Get(roomID)
	if !ok {
		e.mu.Unlock()
		return domain.ErrRoomNotFound
	}
	room := state.Room()
	if room.IsPrivate && room.Password != password {
		e.mu.Unlock()
		return domain.ErrWrongPassword
	}
	if !state.Open() {
		e.mu.Unlock()
		return domain.ErrRoomFull
	}
	isHost := user.ID == room.HostID
	e.mu.Unlock()

	// Suspension point: guests must hold at least the base charge.
	var balance int64
	if !isHost {
		var err error
		balance, err = e.store.Balance(ctx, user.ID)
		if err != nil {
			e.metrics.Errors.WithLabelValues("orch").Inc()
			return fmt.Errorf("balance check: %w", err)
		}
		if balance < room.CallType.BaseCharge() {
			return domain.ErrInsufficientBalance
		}
	}

	e.mu.Lock()
	state, ok = e.rooms.Get(roomID)
	if !ok {
		e.mu.Unlock()
		return domain.ErrRoomNotFound
	}
	if _, ok := e.rooms.FindByConn(id); ok {
		e.mu.Unlock()
		return domain.ErrAlreadyInRoom
	}
	p := domain.Participant{UserID: user.ID, Nickname: user.Nickname, ConnID: id, IsHost: isHost}
	if err := state.Add(p, e.clock.Now()); err != nil {
		e.mu.Unlock()
		return err
	}
	e.registry.SetRoom(id, roomID)
	snap := state.Snapshot()
	members := state.ConnIDs()
	e.mu.Unlock()

	log.Info().Str("module", "orch").Str("room", string(roomID)).Int64("user", int64(user.ID)).Bool("host", isHost).Msg("joined room")

	joined := core.RoomJoinedEvent{Type: "roomJoined", RoomDTO: snap, ConferenceAppID: e.conferenceAppID}
	if !isHost {
		joined.GuestBalance = &balance
	}
	e.dispatch.Unicast(id, joined)
	e.dispatch.Multicast(members, core.RoomUpdatedEvent{Type: "roomUpdated", Room: snap})
	e.dispatch.All(core.RoomListUpdatedEvent{Type: "roomListUpdated", Room: snap})
	return nil
}
