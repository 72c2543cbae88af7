package signal

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/minwoo-dev/talklink/internal/domain"
)

func (ctl *WSController) handleAuthenticate(ctx context.Context, id domain.ConnID, conn *WsSignalConn, data []byte) {
	type payload struct {
		Type         string  `json:"type"`
		UserID       int64   `json:"userId"`
		Email        string  `json:"email"`
		Nickname     string  `json:"nickname"`
		ProfileImage string  `json:"profileImage"`
		AgeGroup     *int    `json:"age_group"`
		Gender       *string `json:"gender"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad authenticate payload")
		ctl.sendError(conn, errors.New("bad payload"))
		return
	}
	if p.UserID == 0 || p.Nickname == "" {
		// The source system silently ignores incomplete authenticate
		// payloads; the connection just stays anonymous.
		log.Warn().Str("module", "signal").Str("conn", string(id)).Msg("incomplete authenticate payload ignored")
		return
	}

	user, err := domain.NewUser(domain.UserID(p.UserID), p.Email, p.Nickname)
	if err != nil {
		ctl.sendError(conn, err)
		return
	}
	user.ProfileImage = p.ProfileImage
	user.AgeGroup = p.AgeGroup
	user.Gender = p.Gender

	ctl.Engine.Authenticate(ctx, id, user)
}
