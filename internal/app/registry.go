package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/minwoo-dev/talklink/internal/core"
	"github.com/minwoo-dev/talklink/internal/domain"
)

// Registry tracks every live connection as anonymous or authenticated.
// Invariant: at most one live entry per authenticated user id; a fresh
// authenticate for the same id supersedes the older connection's binding.
type Registry struct {
	mu     sync.RWMutex
	conns  map[domain.ConnID]*domain.Presence
	byUser map[domain.UserID]domain.ConnID
}

func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[domain.ConnID]*domain.Presence),
		byUser: make(map[domain.UserID]domain.ConnID),
	}
}

// Connect registers a fresh connection as anonymous.
func (r *Registry) Connect(id domain.ConnID, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = &domain.Presence{ConnID: id, ConnectedAt: at}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("anonymous connected")
}

// Authenticate transitions anonymous -> authenticated. Idempotent; any
// prior binding for the same user id is replaced.
func (r *Registry) Authenticate(id domain.ConnID, user *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.conns[id]
	if !ok {
		entry = &domain.Presence{ConnID: id}
		r.conns[id] = entry
	}
	if prev, ok := r.byUser[user.ID]; ok && prev != id {
		if stale, ok := r.conns[prev]; ok {
			stale.User = nil
		}
		log.Info().Str("module", "app.registry").Str("conn", string(prev)).Int64("user", int64(user.ID)).Msg("superseded prior connection")
	}
	entry.User = user
	r.byUser[user.ID] = id
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Int64("user", int64(user.ID)).Str("nickname", user.Nickname).Msg("authenticated")
}

// Disconnect removes the entry and reports whether it was authenticated.
func (r *Registry) Disconnect(id domain.ConnID) (domain.UserID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.conns[id]
	if !ok {
		return 0, false
	}
	delete(r.conns, id)
	if entry.User == nil {
		log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("anonymous disconnected")
		return 0, false
	}
	uid := entry.User.ID
	if r.byUser[uid] == id {
		delete(r.byUser, uid)
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Int64("user", int64(uid)).Msg("authenticated disconnected")
	return uid, true
}

func (r *Registry) Get(id domain.ConnID) (*domain.Presence, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.conns[id]
	return p, ok
}

// UserOf returns the authenticated user bound to a connection, if any.
func (r *Registry) UserOf(id domain.ConnID) (*domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.conns[id]; ok && p.User != nil {
		return p.User, true
	}
	return nil, false
}

// ConnOf resolves a user id to its single live connection.
func (r *Registry) ConnOf(uid domain.UserID) (domain.ConnID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUser[uid]
	return id, ok
}

func (r *Registry) SetRoom(id domain.ConnID, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.conns[id]; ok {
		p.RoomID = roomID
	}
}

func (r *Registry) ClearRoom(id domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.conns[id]; ok {
		p.RoomID = ""
	}
}

// RoomOf returns the room a connection currently occupies, if any.
func (r *Registry) RoomOf(id domain.ConnID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.conns[id]
	if !ok || p.RoomID == "" {
		return "", false
	}
	return p.RoomID, true
}

// OnlineSnapshot is consistent with the registry contents at call time:
// total always equals authenticated + anonymous.
func (r *Registry) OnlineSnapshot() core.OnlineCountEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ev := core.OnlineCountEvent{
		Type:               "onlineCount",
		Total:              len(r.conns),
		AuthenticatedUsers: []core.OnlineUserDTO{},
	}
	for _, p := range r.conns {
		if p.User == nil {
			ev.Anonymous++
			continue
		}
		ev.Authenticated++
		ev.AuthenticatedUsers = append(ev.AuthenticatedUsers, core.OnlineUserDTO{
			UserID:   p.User.ID,
			Nickname: p.User.Nickname,
			AgeGroup: p.User.AgeGroup,
			Gender:   p.User.Gender,
		})
	}
	return ev
}
