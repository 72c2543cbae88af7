package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/minwoo-dev/talklink/internal/domain"
)

func (ctl *WSController) handleSendMessage(id domain.ConnID, conn *WsSignalConn, data []byte) {
	type payload struct {
		Type    string `json:"type"`
		RoomID  string `json:"roomId"`
		Message string `json:"message"`
		Kind    string `json:"messageType"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad sendMessage payload")
		ctl.sendError(conn, errors.New("bad payload"))
		return
	}
	if p.Message == "" {
		return
	}
	if err := ctl.Engine.SendMessage(id, domain.RoomID(p.RoomID), p.Message, p.Kind); err != nil {
		ctl.sendError(conn, err)
	}
}
