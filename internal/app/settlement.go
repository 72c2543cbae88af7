package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/minwoo-dev/talklink/internal/core"
	"github.com/minwoo-dev/talklink/internal/domain"
	"github.com/minwoo-dev/talklink/internal/metrics"
	"github.com/minwoo-dev/talklink/internal/repo"
)

// Outcome is the monetary result of one ended session.
type Outcome struct {
	HostEarnings    int64
	HostPenalty     int64
	GuestCharge     int64
	GuestGrace      bool
	HostExitedEarly bool
}

// Compute derives the settlement outcome from call type, session duration
// and whether it was the host who ended the session. Pure; no clock, no IO.
func Compute(callType domain.CallType, dur time.Duration, hostLeft bool) Outcome {
	secs := int64(dur / time.Second)
	out := Outcome{}

	if hostLeft && dur < domain.EarlyExitThreshold {
		// The host cut the session short: flat penalty, no earnings, and
		// the guest rides free as compensation.
		out.HostExitedEarly = true
		out.HostPenalty = domain.HostPenaltyPoints
		out.GuestGrace = dur <= domain.GuestGracePeriod
		return out
	}

	if dur <= domain.GuestGracePeriod {
		// Accidental join; nothing billed, host earns floor(secs/60) = 0.
		out.GuestGrace = true
		return out
	}

	minutesUp := (secs + 59) / 60
	charge := minutesUp * callType.PerMinute()
	if base := callType.BaseCharge(); charge < base {
		charge = base
	}
	out.GuestCharge = charge
	out.HostEarnings = (secs / 60) * callType.PerMinute()
	return out
}

// SettlementUnit is one durability unit: the call record plus every
// ledger entry of the session. Either all of it lands or none of it does,
// and a failed unit is retried rather than dropped.
type SettlementUnit struct {
	Record  domain.CallRecord
	Entries []domain.LedgerEntry
}

// BuildUnit assembles the durability unit for a closed-or-reverted session.
func BuildUnit(room *domain.Room, sess core.Session, out Outcome, endReason string, endedAt time.Time) SettlementUnit {
	callID := uuid.NewString()
	rec := domain.CallRecord{
		CallID:          callID,
		RoomID:          room.ID,
		HostUserID:      room.HostID,
		GuestUserID:     sess.Guest.UserID,
		CallType:        room.CallType,
		Language:        room.Language,
		Topic:           room.Topic,
		StartedAt:       sess.StartedAt,
		EndedAt:         endedAt,
		DurationSeconds: sess.Seconds(),
		HostEarnings:    out.HostEarnings,
		GuestCharge:     out.GuestCharge,
		HostExitedEarly: out.HostExitedEarly,
		PenaltyPoints:   out.HostPenalty,
		GuestGraceExit:  out.GuestGrace,
		EndReason:       endReason,
	}

	var entries []domain.LedgerEntry
	if out.HostEarnings > 0 {
		entries = append(entries, domain.LedgerEntry{
			UserID:        room.HostID,
			Amount:        out.HostEarnings,
			Kind:          domain.KindEarn,
			Reason:        domain.ReasonCallEarning,
			ReferenceType: "call_history",
			ReferenceID:   callID,
		})
	}
	if out.HostPenalty > 0 {
		entries = append(entries, domain.LedgerEntry{
			UserID:        room.HostID,
			Amount:        -out.HostPenalty,
			Kind:          domain.KindCharge,
			Reason:        domain.ReasonEarlyExitPenalty,
			ReferenceType: "call_history",
			ReferenceID:   callID,
		})
	}
	if out.GuestCharge > 0 {
		entries = append(entries, domain.LedgerEntry{
			UserID:        sess.Guest.UserID,
			Amount:        -out.GuestCharge,
			Kind:          domain.KindCharge,
			Reason:        domain.ReasonCallCharge,
			ReferenceType: "call_history",
			ReferenceID:   callID,
		})
	}
	return SettlementUnit{Record: rec, Entries: entries}
}

// Settler persists settlement units. The room transition never waits on
// it: a unit that fails to write goes to the retry queue, because
// silently dropping a settlement is the one forbidden failure mode.
type Settler struct {
	store   repo.Store
	metrics *metrics.Metrics
	retries chan SettlementUnit
}

func NewSettler(store repo.Store, m *metrics.Metrics) *Settler {
	return &Settler{
		store:   store,
		metrics: m,
		retries: make(chan SettlementUnit, 256),
	}
}

// Submit writes the unit, queueing it for retry on failure.
func (s *Settler) Submit(ctx context.Context, unit SettlementUnit) {
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.store.InsertSettlement(writeCtx, unit.Record, unit.Entries); err != nil {
		log.Error().Err(err).Str("module", "app.settler").Str("call", unit.Record.CallID).Msg("settlement write failed, queued for retry")
		s.metrics.Errors.WithLabelValues("settler").Inc()
		select {
		case s.retries <- unit:
		default:
			log.Error().Str("module", "app.settler").Str("call", unit.Record.CallID).Msg("retry queue full, settlement unit stalled in memory")
		}
		return
	}
	s.metrics.Settlements.WithLabelValues(outcomeLabel(unit.Record)).Inc()
	s.metrics.SessionDuration.Observe(float64(unit.Record.DurationSeconds))
	log.Info().Str("module", "app.settler").
		Str("call", unit.Record.CallID).
		Int64("host_earn", unit.Record.HostEarnings).
		Int64("guest_charge", unit.Record.GuestCharge).
		Int64("penalty", unit.Record.PenaltyPoints).
		Msg("settlement written")
}

// Run drains the retry queue until ctx is cancelled.
func (s *Settler) Run(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	var pending []SettlementUnit
	for {
		select {
		case <-ctx.Done():
			if len(pending) > 0 {
				log.Warn().Str("module", "app.settler").Int("pending", len(pending)).Msg("shutting down with unwritten settlements")
			}
			return
		case unit := <-s.retries:
			pending = append(pending, unit)
		case <-ticker.C:
			remaining := pending[:0]
			for _, unit := range pending {
				writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				err := s.store.InsertSettlement(writeCtx, unit.Record, unit.Entries)
				cancel()
				if err != nil {
					remaining = append(remaining, unit)
					continue
				}
				s.metrics.Settlements.WithLabelValues(outcomeLabel(unit.Record)).Inc()
				log.Info().Str("module", "app.settler").Str("call", unit.Record.CallID).Msg("settlement written on retry")
			}
			pending = remaining
		}
	}
}

func outcomeLabel(rec domain.CallRecord) string {
	switch {
	case rec.HostExitedEarly:
		return "early_exit"
	case rec.GuestGraceExit:
		return "grace_exit"
	default:
		return "normal"
	}
}
