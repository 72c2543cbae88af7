package core

import (
	"sync"
	"time"

	"github.com/minwoo-dev/talklink/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomState is the threadsafe state machine for one room:
// waiting (host only) -> active (two participants, session timer running)
// -> closed (removed from the directory, id never reused). A guest leave
// reverts active back to waiting and clears the timer.
type RoomState struct {
	room *domain.Room

	mu               sync.RWMutex
	participants     []domain.Participant
	sessionStartedAt time.Time
	settled          bool
}

func NewRoomState(room *domain.Room, host domain.Participant) *RoomState {
	return &RoomState{
		room:         room,
		participants: []domain.Participant{host},
	}
}

func (r *RoomState) Room() *domain.Room { return r.room }

func (r *RoomState) ParticipantCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants)
}

func (r *RoomState) Open() bool {
	return r.ParticipantCount() < domain.RoomCapacity
}

// Add appends a participant, re-checking capacity atomically with the
// append so two racing joins for the last slot resolve to one winner.
// Starting the session also re-arms the one-shot settlement guard.
func (r *RoomState) Add(p domain.Participant, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.participants) >= domain.RoomCapacity {
		return domain.ErrRoomFull
	}
	for _, existing := range r.participants {
		if existing.ConnID == p.ConnID {
			return domain.ErrAlreadyInRoom
		}
	}
	r.participants = append(r.participants, p)
	if len(r.participants) == domain.RoomCapacity && r.sessionStartedAt.IsZero() {
		r.sessionStartedAt = now
		r.settled = false
		log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Msg("session started")
	}
	return nil
}

// Remove drops a participant and reverts the room to waiting.
// The caller snapshots the session (Session) before removing.
func (r *RoomState) Remove(id domain.ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.participants {
		if p.ConnID == id {
			r.participants = append(r.participants[:i], r.participants[i+1:]...)
			r.sessionStartedAt = time.Time{}
			log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("conn", string(id)).Msg("participant removed")
			return true
		}
	}
	return false
}

func (r *RoomState) Participant(id domain.ConnID) (domain.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.participants {
		if p.ConnID == id {
			return p, true
		}
	}
	return domain.Participant{}, false
}

// Counterpart returns the other participant, if any.
func (r *RoomState) Counterpart(id domain.ConnID) (domain.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.participants {
		if p.ConnID != id {
			return p, true
		}
	}
	return domain.Participant{}, false
}

func (r *RoomState) ConnIDs() []domain.ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ConnID, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, p.ConnID)
	}
	return out
}

// Session is the derived interval that exists only while both seats are
// taken. Duration is whole seconds, the only quantity settlement consumes.
type Session struct {
	Started   bool
	StartedAt time.Time
	Duration  time.Duration
	Guest     domain.Participant
	GuestSet  bool
}

func (s Session) Seconds() int64 { return int64(s.Duration / time.Second) }

// Session snapshots the running session relative to now. Call it before
// Remove; Remove clears the timer.
func (r *RoomState) Session(now time.Time) Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := Session{}
	if r.sessionStartedAt.IsZero() {
		return s
	}
	s.Started = true
	s.StartedAt = r.sessionStartedAt
	s.Duration = now.Sub(r.sessionStartedAt)
	if s.Duration < 0 {
		s.Duration = 0
	}
	for _, p := range r.participants {
		if !p.IsHost {
			s.Guest = p
			s.GuestSet = true
		}
	}
	return s
}

// BeginSettlement claims the one-shot settlement slot for the current
// session. The second of two racing leave/disconnect signals loses.
func (r *RoomState) BeginSettlement() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settled {
		return false
	}
	r.settled = true
	return true
}

// Snapshot is the wire view of the room; the password never leaves the server.
func (r *RoomState) Snapshot() RoomDTO {
	r.mu.RLock()
	defer r.mu.RUnlock()
	parts := make([]domain.Participant, len(r.participants))
	copy(parts, r.participants)
	dto := RoomDTO{
		ID:               r.room.ID,
		Title:            r.room.Title,
		HostID:           r.room.HostID,
		HostNickname:     r.room.HostNickname,
		HostProfileImage: r.room.HostProfileImage,
		Language:         r.room.Language,
		Topic:            r.room.Topic,
		CallType:         r.room.CallType,
		MaxParticipants:  domain.RoomCapacity,
		IsPrivate:        r.room.IsPrivate,
		Participants:     parts,
		CreatedAt:        r.room.CreatedAt.UTC().Format(time.RFC3339),
	}
	if !r.sessionStartedAt.IsZero() {
		dto.SessionStartedAt = r.sessionStartedAt.UTC().Format(time.RFC3339)
	}
	return dto
}
