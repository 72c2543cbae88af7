package orch

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/minwoo-dev/talklink/internal/app"
	"github.com/minwoo-dev/talklink/internal/core"
	"github.com/minwoo-dev/talklink/internal/domain"
)

const (
	hostLeftMessage         = "The host left and the session has ended."
	hostDisconnectedMessage = "The host lost connection and the session has ended."
)

// Depart is the single entry point for both leaveRoom and transport
// disconnect, so idempotency lives in one place: once a connection's
// departure is fully processed, a second signal finds no membership and
// is a no-op. Settlement runs at most once per session regardless of how
// many departure signals race in.
func (e *Engine) Depart(ctx context.Context, id domain.ConnID, disconnected bool) {
	e.mu.Lock()
	state, ok := e.rooms.FindByConn(id)
	if !ok {
		e.mu.Unlock()
		return
	}
	p, _ := state.Participant(id)
	room := state.Room()
	now := e.clock.Now()
	sess := state.Session(now)

	// Settlement needs an authenticated guest and a started session, and
	// fires once per session even when leave and disconnect both land.
	settle := sess.Started && sess.GuestSet && sess.Guest.UserID != 0 && state.BeginSettlement()
	var unit app.SettlementUnit
	offerRating := false
	if settle {
		out := app.Compute(room.CallType, sess.Duration, p.IsHost)
		unit = app.BuildUnit(room, sess, out, endReason(p.IsHost, disconnected), now)
		offerRating = sess.Duration >= domain.EarlyExitThreshold
	}

	if p.IsHost {
		// Host departure destroys the room unconditionally.
		counterpart, hasGuest := state.Counterpart(id)
		e.rooms.Delete(room.ID)
		e.registry.ClearRoom(id)
		if hasGuest {
			e.registry.ClearRoom(counterpart.ConnID)
		}
		e.mu.Unlock()

		if settle {
			e.settler.Submit(ctx, unit)
		}
		log.Info().Str("module", "orch").Str("room", string(room.ID)).Bool("disconnected", disconnected).Msg("room closed, host departed")

		if hasGuest {
			closed := core.RoomClosedEvent{
				Type:    "roomClosed",
				RoomID:  room.ID,
				Reason:  domain.EndHostLeft,
				Message: hostLeftMessage,
			}
			if disconnected {
				closed.Reason = domain.EndHostDisconnected
				closed.Message = hostDisconnectedMessage
			}
			if offerRating {
				closed.ShowRatingModal = true
				closed.HostUserID = room.HostID
			}
			e.dispatch.Unicast(counterpart.ConnID, closed)
		}
		if !disconnected {
			e.dispatch.Unicast(id, core.RoomLeftEvent{Type: "roomLeft", RoomID: room.ID})
		}
		e.dispatch.All(core.RoomDeletedEvent{Type: "roomDeleted", RoomID: room.ID})
		return
	}

	// Guest departure reverts the room to waiting; the session timer is
	// cleared and the room stays listed.
	state.Remove(id)
	e.registry.ClearRoom(id)
	snap := state.Snapshot()
	remaining := state.ConnIDs()
	e.mu.Unlock()

	if settle {
		e.settler.Submit(ctx, unit)
	}
	log.Info().Str("module", "orch").Str("room", string(room.ID)).Int64("guest", int64(p.UserID)).Bool("disconnected", disconnected).Msg("guest departed, room reverted to waiting")

	e.dispatch.Multicast(remaining, core.RoomUpdatedEvent{Type: "roomUpdated", Room: snap})
	if !disconnected {
		left := core.RoomLeftEvent{Type: "roomLeft", RoomID: room.ID}
		if offerRating {
			left.ShowRatingModal = true
			left.HostUserID = room.HostID
		}
		e.dispatch.Unicast(id, left)
	}
	e.dispatch.All(core.RoomListUpdatedEvent{Type: "roomListUpdated", Room: snap})
}

// LeaveRoom handles an explicit leaveRoom for a specific room id. A
// mismatched or unknown room still reports cleanly to the caller.
func (e *Engine) LeaveRoom(ctx context.Context, id domain.ConnID, roomID domain.RoomID) error {
	e.mu.Lock()
	state, ok := e.rooms.FindByConn(id)
	e.mu.Unlock()
	if !ok {
		// Already departed; duplicate signals are swallowed.
		return nil
	}
	if state.Room().ID != roomID {
		return domain.ErrNotInRoom
	}
	e.Depart(ctx, id, false)
	return nil
}

func endReason(hostLeft, disconnected bool) string {
	switch {
	case hostLeft && disconnected:
		return domain.EndHostDisconnected
	case hostLeft:
		return domain.EndHostLeft
	case disconnected:
		return domain.EndGuestDisconnected
	default:
		return domain.EndGuestLeft
	}
}
