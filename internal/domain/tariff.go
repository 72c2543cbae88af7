package domain

import "time"

// Tariff constants for paid sessions.
const (
	AudioBaseCharge = 10
	VideoBaseCharge = 40
	AudioPerMinute  = 1
	VideoPerMinute  = 4

	// A host leaving before this threshold with a guest present forfeits
	// earnings and pays the flat penalty instead.
	EarlyExitThreshold = 10 * time.Minute
	HostPenaltyPoints  = 5

	// A guest who bails out within the grace window is not billed.
	GuestGracePeriod = 15 * time.Second
)

// BaseCharge is the minimum a guest pays for a billed session; it doubles
// as the minimum balance required to join as guest.
func (c CallType) BaseCharge() int64 {
	if c == CallVideo {
		return VideoBaseCharge
	}
	return AudioBaseCharge
}

// PerMinute is the metered rate for both guest charges and host earnings.
func (c CallType) PerMinute() int64 {
	if c == CallVideo {
		return VideoPerMinute
	}
	return AudioPerMinute
}
