package core

import (
	"sync"
	"testing"
	"time"

	"github.com/minwoo-dev/talklink/internal/domain"
)

func testRoom(t *testing.T) *domain.Room {
	t.Helper()
	room, err := domain.NewRoom("room_1_test", &domain.User{ID: 1, Nickname: "host"}, domain.RoomSpec{
		Title:    "practice english",
		Language: "english",
		Topic:    "travel",
		CallType: "audio",
	}, time.Now())
	if err != nil {
		t.Fatalf("NewRoom: %v", err)
	}
	return room
}

func TestAddStartsSessionAtCapacity(t *testing.T) {
	host := domain.Participant{UserID: 1, ConnID: "h", IsHost: true}
	state := NewRoomState(testRoom(t), host)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sess := state.Session(now)
	if sess.Started {
		t.Fatal("session must not run with one participant")
	}

	if err := state.Add(domain.Participant{UserID: 2, ConnID: "g"}, now); err != nil {
		t.Fatalf("Add: %v", err)
	}
	sess = state.Session(now.Add(3 * time.Minute))
	if !sess.Started {
		t.Fatal("session must start when the second seat fills")
	}
	if sess.Duration != 3*time.Minute {
		t.Fatalf("duration: got %v", sess.Duration)
	}
	if !sess.GuestSet || sess.Guest.UserID != 2 {
		t.Fatalf("guest not captured: %+v", sess)
	}
}

func TestRemoveRevertsToWaiting(t *testing.T) {
	host := domain.Participant{UserID: 1, ConnID: "h", IsHost: true}
	state := NewRoomState(testRoom(t), host)
	now := time.Now()
	if err := state.Add(domain.Participant{UserID: 2, ConnID: "g"}, now); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !state.Remove("g") {
		t.Fatal("Remove returned false for a present participant")
	}
	if state.Session(now.Add(time.Minute)).Started {
		t.Fatal("session timer must clear when the guest leaves")
	}
	if !state.Open() {
		t.Fatal("room must reopen after the guest leaves")
	}
	if state.Remove("g") {
		t.Fatal("second Remove must be a no-op")
	}
}

func TestAddLastSlotRaceHasOneWinner(t *testing.T) {
	host := domain.Participant{UserID: 1, ConnID: "h", IsHost: true}
	state := NewRoomState(testRoom(t), host)
	now := time.Now()

	const racers = 8
	var wg sync.WaitGroup
	errs := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := domain.Participant{UserID: domain.UserID(100 + i), ConnID: domain.ConnID("racer_" + string(rune('a'+i)))}
			errs <- state.Add(p, now)
		}(i)
	}
	wg.Wait()
	close(errs)

	var wins, fulls int
	for err := range errs {
		switch err {
		case nil:
			wins++
		case domain.ErrRoomFull:
			fulls++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || fulls != racers-1 {
		t.Fatalf("expected exactly one winner, got wins=%d fulls=%d", wins, fulls)
	}
	if state.ParticipantCount() != domain.RoomCapacity {
		t.Fatalf("participant count: got %d", state.ParticipantCount())
	}
}

func TestBeginSettlementIsOneShot(t *testing.T) {
	host := domain.Participant{UserID: 1, ConnID: "h", IsHost: true}
	state := NewRoomState(testRoom(t), host)
	now := time.Now()
	if err := state.Add(domain.Participant{UserID: 2, ConnID: "g"}, now); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if !state.BeginSettlement() {
		t.Fatal("first claim must win")
	}
	if state.BeginSettlement() {
		t.Fatal("second claim must lose")
	}

	// A fresh session re-arms the guard.
	state.Remove("g")
	if err := state.Add(domain.Participant{UserID: 3, ConnID: "g2"}, now.Add(time.Minute)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !state.BeginSettlement() {
		t.Fatal("guard must re-arm when a new session starts")
	}
}

func TestSnapshotOmitsPassword(t *testing.T) {
	room, err := domain.NewRoom("room_2_test", &domain.User{ID: 1, Nickname: "host"}, domain.RoomSpec{
		Title:     "private chat",
		CallType:  "video",
		IsPrivate: true,
		Password:  "secret",
	}, time.Now())
	if err != nil {
		t.Fatalf("NewRoom: %v", err)
	}
	state := NewRoomState(room, domain.Participant{UserID: 1, ConnID: "h", IsHost: true})
	dto := state.Snapshot()
	if !dto.IsPrivate {
		t.Fatal("snapshot must flag private rooms")
	}
	if dto.SessionStartedAt != "" {
		t.Fatal("waiting room must not report a session start")
	}
}
