package orch

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/minwoo-dev/talklink/internal/core"
	"github.com/minwoo-dev/talklink/internal/domain"
)

// SendGift moves points from sender to recipient as one atomic pair of
// ledger entries; a transfer is never partially applied. Balance checks
// are snapshots, not locks: concurrent movements on the same user are
// accepted as eventually consistent.
func (e *Engine) SendGift(ctx context.Context, sender *domain.User, recipientID domain.UserID, amount int64) (int64, error) {
	if !domain.ValidGiftAmount(amount) {
		return 0, domain.ErrInvalidGiftAmount
	}
	if sender.ID == recipientID {
		return 0, domain.ErrSelfGift
	}

	exists, err := e.store.UserExists(ctx, recipientID)
	if err != nil {
		return 0, fmt.Errorf("recipient lookup: %w", err)
	}
	if !exists {
		return 0, domain.ErrRecipientNotFound
	}

	balance, err := e.store.Balance(ctx, sender.ID)
	if err != nil {
		return 0, fmt.Errorf("sender balance: %w", err)
	}
	if balance < amount {
		return 0, domain.ErrInsufficientBalance
	}

	debit := domain.LedgerEntry{
		UserID:        sender.ID,
		Amount:        -amount,
		Kind:          domain.KindCharge,
		Reason:        domain.ReasonGiftSent,
		ReferenceType: "users",
		ReferenceID:   strconv.FormatInt(int64(recipientID), 10),
	}
	credit := domain.LedgerEntry{
		UserID:        recipientID,
		Amount:        amount,
		Kind:          domain.KindEarn,
		Reason:        domain.ReasonGiftReceived,
		ReferenceType: "users",
		ReferenceID:   strconv.FormatInt(int64(sender.ID), 10),
	}
	if err := e.store.InsertLedgerPair(ctx, debit, credit); err != nil {
		e.metrics.Errors.WithLabelValues("gift").Inc()
		return 0, fmt.Errorf("gift transfer: %w", err)
	}
	e.metrics.Gifts.Inc()
	log.Info().Str("module", "orch").Int64("sender", int64(sender.ID)).Int64("recipient", int64(recipientID)).Int64("amount", amount).Msg("gift transferred")

	newSenderBalance, err := e.store.Balance(ctx, sender.ID)
	if err != nil {
		newSenderBalance = balance - amount
	}

	// Notifications are best-effort; the ledger write already succeeded.
	if conn, ok := e.registry.ConnOf(sender.ID); ok {
		e.dispatch.Unicast(conn, core.PointsUpdatedEvent{Type: "pointsUpdated", Balance: newSenderBalance})
	}
	if conn, ok := e.registry.ConnOf(recipientID); ok {
		recipientBalance, err := e.store.Balance(ctx, recipientID)
		if err == nil {
			e.dispatch.Unicast(conn, core.GiftReceivedEvent{
				Type:           "giftReceived",
				SenderNickname: sender.Nickname,
				Amount:         amount,
				NewBalance:     recipientBalance,
			})
		}
	}
	return newSenderBalance, nil
}
