package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/minwoo-dev/talklink/internal/app"
	"github.com/minwoo-dev/talklink/internal/app/orch"
	"github.com/minwoo-dev/talklink/internal/domain"
	"github.com/minwoo-dev/talklink/internal/repo"
)

// Handlers groups the synchronous HTTP surface of the settlement core.
type Handlers struct {
	Engine   *orch.Engine
	Registry *app.Registry
	Store    repo.Store
}

// caller resolves the authenticated user behind the request's client
// token. The token is bound to a user when the websocket authenticates.
func (h *Handlers) caller(c *gin.Context) (*domain.User, bool) {
	token := c.GetString("client_token")
	if token == "" {
		return nil, false
	}
	return h.Registry.UserOf(domain.ConnID(token))
}

// SendGift transfers points between users.
// POST /api/gift {recipientUserId, amount}
func (h *Handlers) SendGift(c *gin.Context) {
	sender, ok := h.caller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrNotAuthenticated.Error()})
		return
	}

	var body struct {
		RecipientUserID int64 `json:"recipientUserId" binding:"required"`
		Amount          int64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required parameters"})
		return
	}

	newBalance, err := h.Engine.SendGift(c.Request.Context(), sender, domain.UserID(body.RecipientUserID), body.Amount)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidGiftAmount),
			errors.Is(err, domain.ErrSelfGift),
			errors.Is(err, domain.ErrInsufficientBalance):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrRecipientNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			log.Error().Err(err).Str("module", "adapters.http").Msg("gift transfer failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "gift transfer failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "gift sent",
		"newBalance": newBalance,
	})
}

// SubmitRating records a review of the host of the most recent call
// between the two users, rewards the reviewer, and adjusts reputation.
// POST /api/ratings {ratedUserId, raterUserId, ratingScore, ratingComment?}
func (h *Handlers) SubmitRating(c *gin.Context) {
	var body struct {
		RatedUserID   int64  `json:"ratedUserId" binding:"required"`
		RaterUserID   int64  `json:"raterUserId" binding:"required"`
		RatingScore   int    `json:"ratingScore" binding:"required"`
		RatingComment string `json:"ratingComment"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required parameters"})
		return
	}
	if body.RatingScore < 1 || body.RatingScore > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrBadRatingScore.Error()})
		return
	}

	ctx := c.Request.Context()
	call, err := h.Store.LatestCallByPair(ctx, domain.UserID(body.RatedUserID), domain.UserID(body.RaterUserID))
	if errors.Is(err, repo.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no call record found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("call lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rating submission failed"})
		return
	}

	already, err := h.Store.HasRating(ctx, call.CallID, domain.UserID(body.RaterUserID))
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("rating lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rating submission failed"})
		return
	}
	if already {
		c.JSON(http.StatusConflict, gin.H{"error": "rating already submitted"})
		return
	}

	rating := domain.Rating{
		CallID:      call.CallID,
		RaterUserID: domain.UserID(body.RaterUserID),
		RatedUserID: domain.UserID(body.RatedUserID),
		Score:       body.RatingScore,
		Comment:     body.RatingComment,
	}
	if err := h.Store.InsertRating(ctx, rating); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("rating insert failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rating submission failed"})
		return
	}

	log.Info().Str("module", "adapters.http").Str("call", call.CallID).Int64("rater", body.RaterUserID).Int("score", body.RatingScore).Msg("rating submitted")
	c.JSON(http.StatusOK, gin.H{"message": "rating submitted"})
}

// PointsHistory returns the caller's recent ledger entries and balance.
// GET /api/points/history
func (h *Handlers) PointsHistory(c *gin.Context) {
	user, ok := h.caller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrNotAuthenticated.Error()})
		return
	}

	ctx := c.Request.Context()
	history, err := h.Store.LedgerHistory(ctx, user.ID, 100)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("ledger history failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "points lookup failed"})
		return
	}
	balance, err := h.Store.Balance(ctx, user.ID)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("balance lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "points lookup failed"})
		return
	}

	type entryDTO struct {
		Amount        int64  `json:"amount"`
		Kind          string `json:"type"`
		Reason        string `json:"reason"`
		ReferenceType string `json:"reference_type,omitempty"`
		ReferenceID   string `json:"reference_id,omitempty"`
		CreatedAt     string `json:"created_at"`
	}
	out := make([]entryDTO, 0, len(history))
	for _, e := range history {
		out = append(out, entryDTO{
			Amount:        e.Amount,
			Kind:          string(e.Kind),
			Reason:        e.Reason,
			ReferenceType: e.ReferenceType,
			ReferenceID:   e.ReferenceID,
			CreatedAt:     e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "points history retrieved",
		"data": gin.H{
			"totalPoints": balance,
			"history":     out,
		},
	})
}
