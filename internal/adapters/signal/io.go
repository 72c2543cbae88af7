package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/minwoo-dev/talklink/internal/domain"
)

func (ctl *WSController) writePump(ctx context.Context, c *WsSignalConn) {
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *WSController) readPump(ctx context.Context, id domain.ConnID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(id)).Msg("readPump closing")
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("readPump read error")
				return
			}
			ctl.handleEvent(ctx, id, c, data)
		}
	}
}

func (ctl *WSController) handleEvent(ctx context.Context, id domain.ConnID, c *WsSignalConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}
	ctl.Metrics.InboundEvents.WithLabelValues(env.Type).Inc()

	switch env.Type {
	case "authenticate":
		ctl.handleAuthenticate(ctx, id, c, data)
	case "getRooms":
		ctl.Engine.SendRoomList(id)
	case "getOnlineCount":
		ctl.Engine.SendOnlineCount(id)
	case "createRoom":
		ctl.handleCreateRoom(id, c, data)
	case "joinRoom":
		ctl.handleJoinRoom(ctx, id, c, data)
	case "leaveRoom":
		ctl.handleLeaveRoom(ctx, id, c, data)
	case "sendMessage":
		ctl.handleSendMessage(id, c, data)
	case "webrtc-offer", "webrtc-answer", "webrtc-ice-candidate":
		ctl.handleRelay(id, env.Type, data)
	case "ping":
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown event")
	}
}
