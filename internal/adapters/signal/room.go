package signal

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/minwoo-dev/talklink/internal/domain"
)

func (ctl *WSController) handleCreateRoom(id domain.ConnID, conn *WsSignalConn, data []byte) {
	type payload struct {
		Type      string `json:"type"`
		Title     string `json:"title"`
		Language  string `json:"language"`
		Topic     string `json:"topic"`
		RoomType  string `json:"roomType"`
		IsPrivate bool   `json:"isPrivate"`
		Password  string `json:"password"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad createRoom payload")
		ctl.sendError(conn, errors.New("bad payload"))
		return
	}

	err := ctl.Engine.CreateRoom(id, domain.RoomSpec{
		Title:     p.Title,
		Language:  p.Language,
		Topic:     p.Topic,
		CallType:  p.RoomType,
		IsPrivate: p.IsPrivate,
		Password:  p.Password,
	})
	if err != nil {
		ctl.sendError(conn, err)
	}
}

func (ctl *WSController) handleJoinRoom(ctx context.Context, id domain.ConnID, conn *WsSignalConn, data []byte) {
	type payload struct {
		Type     string `json:"type"`
		RoomID   string `json:"roomId"`
		Password string `json:"password"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad joinRoom payload")
		ctl.sendError(conn, errors.New("bad payload"))
		return
	}

	if !ctl.joinLimiter.Allow(id) {
		ctl.sendError(conn, errors.New("too many join attempts, slow down"))
		return
	}

	if err := ctl.Engine.JoinRoom(ctx, id, domain.RoomID(p.RoomID), p.Password); err != nil {
		ctl.sendError(conn, err)
	}
}

func (ctl *WSController) handleLeaveRoom(ctx context.Context, id domain.ConnID, conn *WsSignalConn, data []byte) {
	type payload struct {
		Type   string `json:"type"`
		RoomID string `json:"roomId"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad leaveRoom payload")
		ctl.sendError(conn, errors.New("bad payload"))
		return
	}
	if err := ctl.Engine.LeaveRoom(ctx, id, domain.RoomID(p.RoomID)); err != nil {
		ctl.sendError(conn, err)
	}
}
