package app

import (
	"testing"
	"time"

	"github.com/minwoo-dev/talklink/internal/core"
	"github.com/minwoo-dev/talklink/internal/domain"
)

func TestComputeGuestGrace(t *testing.T) {
	out := Compute(domain.CallVideo, 8*time.Second, false)
	if !out.GuestGrace {
		t.Fatal("expected grace exit")
	}
	if out.GuestCharge != 0 {
		t.Fatalf("expected no charge, got %d", out.GuestCharge)
	}
	if out.HostEarnings != 0 || out.HostPenalty != 0 {
		t.Fatalf("expected no host movement, got earn=%d penalty=%d", out.HostEarnings, out.HostPenalty)
	}
}

func TestComputeHostEarlyExit(t *testing.T) {
	out := Compute(domain.CallAudio, 4*time.Minute, true)
	if !out.HostExitedEarly {
		t.Fatal("expected early exit")
	}
	if out.HostPenalty != domain.HostPenaltyPoints {
		t.Fatalf("expected penalty %d, got %d", domain.HostPenaltyPoints, out.HostPenalty)
	}
	if out.HostEarnings != 0 {
		t.Fatalf("expected no earnings, got %d", out.HostEarnings)
	}
	if out.GuestCharge != 0 {
		t.Fatalf("guest must ride free on early exit, got %d", out.GuestCharge)
	}
}

func TestComputeNormal(t *testing.T) {
	cases := []struct {
		name       string
		callType   domain.CallType
		dur        time.Duration
		hostLeft   bool
		wantEarn   int64
		wantCharge int64
	}{
		{"audio 12 min", domain.CallAudio, 12 * time.Minute, true, 12, 12},
		{"video 11 min guest leaves", domain.CallVideo, 11 * time.Minute, false, 44, 44},
		{"audio base charge floor", domain.CallAudio, 90 * time.Second, false, 1, 10},
		{"video partial minute rounds up", domain.CallVideo, 10*time.Minute + 30*time.Second, false, 40, 44},
		{"audio exactly at threshold", domain.CallAudio, 10 * time.Minute, true, 10, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := Compute(tc.callType, tc.dur, tc.hostLeft)
			if out.HostExitedEarly {
				t.Fatal("unexpected early exit")
			}
			if out.HostEarnings != tc.wantEarn {
				t.Fatalf("earnings: want %d, got %d", tc.wantEarn, out.HostEarnings)
			}
			if out.GuestCharge != tc.wantCharge {
				t.Fatalf("charge: want %d, got %d", tc.wantCharge, out.GuestCharge)
			}
		})
	}
}

func TestComputeGuestLeaveBeforeThresholdIsNotEarlyExit(t *testing.T) {
	// The early-exit penalty exists for hosts cutting sessions short; a
	// guest leaving at 5 minutes settles normally.
	out := Compute(domain.CallAudio, 5*time.Minute, false)
	if out.HostExitedEarly || out.HostPenalty != 0 {
		t.Fatalf("guest leave must not penalize host: %+v", out)
	}
	if out.HostEarnings != 5 {
		t.Fatalf("expected 5 points earned, got %d", out.HostEarnings)
	}
	if out.GuestCharge != 10 {
		t.Fatalf("expected base charge 10, got %d", out.GuestCharge)
	}
}

func TestBuildUnitEntries(t *testing.T) {
	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ended := started.Add(12 * time.Minute)
	room := &domain.Room{
		ID:       domain.RoomID("room_1_test"),
		HostID:   1,
		CallType: domain.CallAudio,
		Language: "english",
		Topic:    "travel",
	}
	sess := core.Session{
		Started:   true,
		StartedAt: started,
		Duration:  12 * time.Minute,
		Guest:     domain.Participant{UserID: 2, ConnID: "g"},
		GuestSet:  true,
	}
	out := Compute(room.CallType, sess.Duration, true)
	unit := BuildUnit(room, sess, out, domain.EndHostLeft, ended)

	if unit.Record.DurationSeconds != 720 {
		t.Fatalf("duration: got %d", unit.Record.DurationSeconds)
	}
	if unit.Record.HostEarnings != 12 || unit.Record.GuestCharge != 12 {
		t.Fatalf("record amounts wrong: %+v", unit.Record)
	}
	if len(unit.Entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(unit.Entries))
	}
	var hostSum, guestSum int64
	for _, e := range unit.Entries {
		if e.ReferenceID != unit.Record.CallID {
			t.Fatalf("entry not anchored to call record: %+v", e)
		}
		switch e.UserID {
		case 1:
			hostSum += e.Amount
		case 2:
			guestSum += e.Amount
		}
	}
	if hostSum != 12 || guestSum != -12 {
		t.Fatalf("sums wrong: host=%d guest=%d", hostSum, guestSum)
	}
}

func TestBuildUnitEarlyExitPenaltyEntry(t *testing.T) {
	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	room := &domain.Room{ID: "room_2_test", HostID: 7, CallType: domain.CallVideo}
	sess := core.Session{
		Started:   true,
		StartedAt: started,
		Duration:  4 * time.Minute,
		Guest:     domain.Participant{UserID: 9},
		GuestSet:  true,
	}
	out := Compute(room.CallType, sess.Duration, true)
	unit := BuildUnit(room, sess, out, domain.EndHostLeft, started.Add(sess.Duration))

	if len(unit.Entries) != 1 {
		t.Fatalf("expected only the penalty entry, got %d", len(unit.Entries))
	}
	e := unit.Entries[0]
	if e.UserID != 7 || e.Amount != -5 || e.Reason != domain.ReasonEarlyExitPenalty {
		t.Fatalf("penalty entry wrong: %+v", e)
	}
}
