package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/minwoo-dev/talklink/internal/core"
	"github.com/minwoo-dev/talklink/internal/domain"
)

// Directory is the in-memory catalog of open rooms. Created at server
// start, torn down at shutdown; request handlers never touch the map
// directly.
type Directory struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*core.RoomState
}

func NewDirectory() *Directory {
	return &Directory{rooms: make(map[domain.RoomID]*core.RoomState)}
}

// NewRoomID mints an id in the historical wire format. A closed room's id
// is never reused: the timestamp/uuid pair makes collisions implausible
// and the directory never recycles entries.
func NewRoomID(now time.Time) domain.RoomID {
	return domain.RoomID(fmt.Sprintf("room_%d_%s", now.UnixMilli(), uuid.NewString()[:8]))
}

func (d *Directory) Put(state *core.RoomState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rooms[state.Room().ID] = state
	log.Info().Str("module", "app.directory").Str("room", string(state.Room().ID)).Str("title", state.Room().Title).Msg("room created")
}

func (d *Directory) Get(id domain.RoomID) (*core.RoomState, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	state, ok := d.rooms[id]
	return state, ok
}

func (d *Directory) Delete(id domain.RoomID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.rooms, id)
	log.Info().Str("module", "app.directory").Str("room", string(id)).Msg("room deleted")
}

// ListOpen returns only rooms below capacity; full rooms are not public
// inventory.
func (d *Directory) ListOpen() []core.RoomDTO {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]core.RoomDTO, 0, len(d.rooms))
	for _, state := range d.rooms {
		if state.Open() {
			out = append(out, state.Snapshot())
		}
	}
	return out
}

// FindByConn scans membership by connection id; a connection occupies at
// most one room.
func (d *Directory) FindByConn(id domain.ConnID) (*core.RoomState, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, state := range d.rooms {
		if _, ok := state.Participant(id); ok {
			return state, true
		}
	}
	return nil, false
}
