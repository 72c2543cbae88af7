package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/minwoo-dev/talklink/internal/domain"
)

// handleRelay passes conferencing payloads (offer/answer/candidate)
// between the two peers of a room without inspecting them. The media
// plane itself is external; the server is only the signaling path.
func (ctl *WSController) handleRelay(id domain.ConnID, eventType string, data []byte) {
	var p struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("type", eventType).Msg("bad relay payload")
		return
	}
	ctl.Engine.RelaySignal(id, eventType, p.Payload)
}
