package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseCallType(t *testing.T) {
	cases := []struct {
		in      string
		want    CallType
		wantErr bool
	}{
		{"audio", CallAudio, false},
		{"voice", CallAudio, false}, // legacy alias still accepted
		{"video", CallVideo, false},
		{"screen", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := ParseCallType(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrBadCallType) {
				t.Fatalf("%q: want ErrBadCallType, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%q: got %q err=%v", tc.in, got, err)
		}
	}
}

func TestNewRoomValidation(t *testing.T) {
	host := &User{ID: 1, Nickname: "host"}
	now := time.Now()

	if _, err := NewRoom("r1", host, RoomSpec{CallType: "audio"}, now); !errors.Is(err, ErrTitleEmpty) {
		t.Fatalf("want ErrTitleEmpty, got %v", err)
	}
	if _, err := NewRoom("r1", host, RoomSpec{Title: "x", CallType: "carrier pigeon"}, now); !errors.Is(err, ErrBadCallType) {
		t.Fatalf("want ErrBadCallType, got %v", err)
	}
	if _, err := NewRoom("r1", host, RoomSpec{Title: "x", CallType: "audio", IsPrivate: true}, now); !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("want ErrPasswordRequired, got %v", err)
	}

	long := strings.Repeat("a", MaxRoomTitleLen+20)
	room, err := NewRoom("r1", host, RoomSpec{Title: long, CallType: "video"}, now)
	if err != nil {
		t.Fatalf("NewRoom: %v", err)
	}
	if len(room.Title) != MaxRoomTitleLen {
		t.Fatalf("title must truncate to %d, got %d", MaxRoomTitleLen, len(room.Title))
	}
	if room.HostID != 1 || room.HostNickname != "host" || room.CallType != CallVideo {
		t.Fatalf("room: %+v", room)
	}
}

func TestTariff(t *testing.T) {
	if CallAudio.BaseCharge() != 10 || CallAudio.PerMinute() != 1 {
		t.Fatal("audio tariff wrong")
	}
	if CallVideo.BaseCharge() != 40 || CallVideo.PerMinute() != 4 {
		t.Fatal("video tariff wrong")
	}
}

func TestValidGiftAmount(t *testing.T) {
	for _, ok := range []int64{50, 100, 200, 300} {
		if !ValidGiftAmount(ok) {
			t.Fatalf("%d must be allowed", ok)
		}
	}
	for _, bad := range []int64{0, -50, 25, 77, 500} {
		if ValidGiftAmount(bad) {
			t.Fatalf("%d must be rejected", bad)
		}
	}
}

func TestDegreeDelta(t *testing.T) {
	cases := map[int]float64{5: 0.1, 4: 0.05, 3: 0, 2: -0.1, 1: -0.1}
	for score, want := range cases {
		if got := DegreeDelta(score); got != want {
			t.Fatalf("score %d: want %v, got %v", score, want, got)
		}
	}
}

func TestNewUser(t *testing.T) {
	if _, err := NewUser(1, "", ""); !errors.Is(err, ErrNicknameEmpty) {
		t.Fatalf("want ErrNicknameEmpty, got %v", err)
	}
	if _, err := NewUser(1, "", strings.Repeat("n", MaxNicknameLen+1)); !errors.Is(err, ErrNicknameTooLong) {
		t.Fatalf("want ErrNicknameTooLong, got %v", err)
	}
	u, err := NewUser(7, "a@b.c", "mina")
	if err != nil || u.ID != 7 || u.Nickname != "mina" {
		t.Fatalf("NewUser: %+v err=%v", u, err)
	}
}
