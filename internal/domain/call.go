package domain

import "time"

// Call end reasons recorded on a CallRecord and sent with roomClosed.
const (
	EndHostLeft          = "host_left"
	EndHostDisconnected  = "host_disconnected"
	EndGuestLeft         = "guest_left"
	EndGuestDisconnected = "guest_disconnected"
)

// CallRecord is written at most once per completed session. Its existence
// is the durable proof that settlement ran; rating eligibility hangs off it.
type CallRecord struct {
	CallID          string
	RoomID          RoomID
	HostUserID      UserID
	GuestUserID     UserID
	CallType        CallType
	Language        string
	Topic           string
	StartedAt       time.Time
	EndedAt         time.Time
	DurationSeconds int64
	HostEarnings    int64
	GuestCharge     int64
	HostExitedEarly bool
	PenaltyPoints   int64
	GuestGraceExit  bool
	EndReason       string
	CreatedAt       time.Time
}

// Rating is one user's review of a call, unique per (call, rater).
// Reviews are one-directional: the rated party is always the host.
type Rating struct {
	CallID      string
	RaterUserID UserID
	RatedUserID UserID
	Score       int
	Comment     string
	CreatedAt   time.Time
}

// DegreeDelta maps a score to the reputation adjustment of the rated user.
func DegreeDelta(score int) float64 {
	switch {
	case score == 5:
		return 0.1
	case score == 4:
		return 0.05
	case score <= 2:
		return -0.1
	}
	return 0
}
