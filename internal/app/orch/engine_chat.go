package orch

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/minwoo-dev/talklink/internal/core"
	"github.com/minwoo-dev/talklink/internal/domain"
)

// SendMessage broadcasts a chat or speech-to-text line to every
// participant of the sender's room, the sender included.
func (e *Engine) SendMessage(id domain.ConnID, roomID domain.RoomID, text, kind string) error {
	user, ok := e.registry.UserOf(id)
	if !ok {
		return domain.ErrNotAuthenticated
	}
	state, ok := e.rooms.Get(roomID)
	if !ok {
		return domain.ErrRoomNotFound
	}
	if _, ok := state.Participant(id); !ok {
		return domain.ErrNotInRoom
	}
	if kind != "stt" {
		kind = "text"
	}
	e.dispatch.Multicast(state.ConnIDs(), core.NewMessageEvent{
		Type:           "newMessage",
		ID:             uuid.NewString(),
		RoomID:         roomID,
		SenderID:       user.ID,
		SenderNickname: user.Nickname,
		Message:        text,
		Timestamp:      e.clock.Now().UTC().Format(time.RFC3339),
		Kind:           kind,
	})
	return nil
}

// RelaySignal forwards an opaque conferencing payload (offer, answer or
// ICE candidate) to the other peer. The server never inspects it.
func (e *Engine) RelaySignal(id domain.ConnID, eventType string, payload json.RawMessage) {
	state, ok := e.rooms.FindByConn(id)
	if !ok {
		return
	}
	if peer, ok := state.Counterpart(id); ok {
		e.dispatch.Unicast(peer.ConnID, core.SignalRelayEvent{Type: eventType, From: id, Payload: payload})
	}
}
