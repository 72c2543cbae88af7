package domain

import "time"

// EntryKind classifies a ledger movement.
type EntryKind string

const (
	KindEarn        EntryKind = "earn"
	KindCharge      EntryKind = "charge"
	KindRefund      EntryKind = "refund"
	KindAdminAdjust EntryKind = "admin_adjust"
)

// Reason tags written into ledger entries.
const (
	ReasonCallEarning      = "call_earning"
	ReasonCallCharge       = "call_charge"
	ReasonEarlyExitPenalty = "early_exit_penalty"
	ReasonGiftSent         = "gift_sent"
	ReasonGiftReceived     = "gift_received"
	ReasonRatingReward     = "rating_reward"
	ReasonFiveStarBonus    = "five_star_bonus"
)

// LedgerEntry is an immutable signed point movement. Balance is always
// the derived sum of a user's entries; corrections are new offsets.
type LedgerEntry struct {
	UserID        UserID
	Amount        int64
	Kind          EntryKind
	Reason        string
	ReferenceType string
	ReferenceID   string
	CreatedAt     time.Time
}

// giftAmounts is the fixed allowed set for a single gift.
var giftAmounts = map[int64]bool{50: true, 100: true, 200: true, 300: true}

func ValidGiftAmount(amount int64) bool { return giftAmounts[amount] }
