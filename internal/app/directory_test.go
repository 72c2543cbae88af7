package app

import (
	"testing"
	"time"

	"github.com/minwoo-dev/talklink/internal/core"
	"github.com/minwoo-dev/talklink/internal/domain"
)

func newDirectoryRoom(t *testing.T, id domain.RoomID, hostConn domain.ConnID) *core.RoomState {
	t.Helper()
	room, err := domain.NewRoom(id, &domain.User{ID: 1, Nickname: "host"}, domain.RoomSpec{
		Title:    "room " + string(id),
		CallType: "audio",
	}, time.Now())
	if err != nil {
		t.Fatalf("NewRoom: %v", err)
	}
	return core.NewRoomState(room, domain.Participant{UserID: 1, ConnID: hostConn, IsHost: true})
}

func TestDirectoryListOpenHidesFullRooms(t *testing.T) {
	d := NewDirectory()
	open := newDirectoryRoom(t, "r_open", "h1")
	full := newDirectoryRoom(t, "r_full", "h2")
	if err := full.Add(domain.Participant{UserID: 2, ConnID: "g"}, time.Now()); err != nil {
		t.Fatalf("Add: %v", err)
	}
	d.Put(open)
	d.Put(full)

	list := d.ListOpen()
	if len(list) != 1 || list[0].ID != "r_open" {
		t.Fatalf("ListOpen: %+v", list)
	}
}

func TestDirectoryFindByConn(t *testing.T) {
	d := NewDirectory()
	state := newDirectoryRoom(t, "r1", "h1")
	d.Put(state)

	if got, ok := d.FindByConn("h1"); !ok || got != state {
		t.Fatal("host connection must resolve to its room")
	}
	if _, ok := d.FindByConn("stranger"); ok {
		t.Fatal("unknown connection must resolve to nothing")
	}
	d.Delete("r1")
	if _, ok := d.FindByConn("h1"); ok {
		t.Fatal("deleted room must not be findable")
	}
}

func TestNewRoomIDFormat(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a := NewRoomID(now)
	b := NewRoomID(now)
	if a == b {
		t.Fatal("ids must be unique even at the same instant")
	}
	const prefix = "room_1748779200000_"
	if string(a[:len(prefix)]) != prefix {
		t.Fatalf("id format: %q", a)
	}
}
