package core

import (
	"encoding/json"

	"github.com/minwoo-dev/talklink/internal/domain"
)

// RoomDTO is the read-only room view sent to clients.
type RoomDTO struct {
	ID               domain.RoomID        `json:"id"`
	Title            string               `json:"title"`
	HostID           domain.UserID        `json:"hostId"`
	HostNickname     string               `json:"hostNickname"`
	HostProfileImage string               `json:"hostProfileImage,omitempty"`
	Language         string               `json:"language"`
	Topic            string               `json:"topic"`
	CallType         domain.CallType      `json:"callType"`
	MaxParticipants  int                  `json:"maxParticipants"`
	IsPrivate        bool                 `json:"isPrivate"`
	Participants     []domain.Participant `json:"participants"`
	CreatedAt        string               `json:"createdAt"`
	SessionStartedAt string               `json:"sessionStartedAt,omitempty"`
}

// OnlineUserDTO is the per-user slice of an online count snapshot.
type OnlineUserDTO struct {
	UserID   domain.UserID `json:"userId"`
	Nickname string        `json:"nickname"`
	AgeGroup *int          `json:"age_group,omitempty"`
	Gender   *string       `json:"gender,omitempty"`
}

// Outbound events. Every payload carries its own type tag so the hub can
// marshal them as-is.

type RoomListEvent struct {
	Type  string    `json:"type"`
	Rooms []RoomDTO `json:"rooms"`
}

type RoomCreatedEvent struct {
	Type   string        `json:"type"`
	RoomID domain.RoomID `json:"roomId"`
}

type RoomJoinedEvent struct {
	Type string `json:"type"`
	RoomDTO
	ConferenceAppID string `json:"agoraAppId,omitempty"`
	GuestBalance    *int64 `json:"guestBalance,omitempty"`
}

type RoomUpdatedEvent struct {
	Type string  `json:"type"`
	Room RoomDTO `json:"room"`
}

type RoomListUpdatedEvent struct {
	Type string  `json:"type"`
	Room RoomDTO `json:"room"`
}

type RoomDeletedEvent struct {
	Type   string        `json:"type"`
	RoomID domain.RoomID `json:"roomId"`
}

type RoomLeftEvent struct {
	Type            string        `json:"type"`
	RoomID          domain.RoomID `json:"roomId"`
	ShowRatingModal bool          `json:"showRatingModal,omitempty"`
	HostUserID      domain.UserID `json:"hostUserId,omitempty"`
}

type RoomClosedEvent struct {
	Type            string        `json:"type"`
	RoomID          domain.RoomID `json:"roomId"`
	Reason          string        `json:"reason"`
	Message         string        `json:"message"`
	ShowRatingModal bool          `json:"showRatingModal,omitempty"`
	HostUserID      domain.UserID `json:"hostUserId,omitempty"`
}

type OnlineCountEvent struct {
	Type               string          `json:"type"`
	Total              int             `json:"total"`
	Authenticated      int             `json:"authenticated"`
	Anonymous          int             `json:"anonymous"`
	AuthenticatedUsers []OnlineUserDTO `json:"authenticatedUsers"`
}

type NewMessageEvent struct {
	Type           string        `json:"type"`
	ID             string        `json:"id"`
	RoomID         domain.RoomID `json:"roomId"`
	SenderID       domain.UserID `json:"senderId"`
	SenderNickname string        `json:"senderNickname"`
	Message        string        `json:"message"`
	Timestamp      string        `json:"timestamp"`
	Kind           string        `json:"messageType"`
}

type PointsUpdatedEvent struct {
	Type    string `json:"type"`
	Balance int64  `json:"balance"`
}

type GiftReceivedEvent struct {
	Type           string `json:"type"`
	SenderNickname string `json:"senderNickname"`
	Amount         int64  `json:"amount"`
	NewBalance     int64  `json:"newBalance"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// SignalRelayEvent forwards an opaque conferencing payload (offer, answer
// or ICE candidate) to the other peer of a room.
type SignalRelayEvent struct {
	Type    string          `json:"type"`
	From    domain.ConnID   `json:"from"`
	Payload json.RawMessage `json:"payload"`
}

func NewErrorEvent(msg string) ErrorEvent { return ErrorEvent{Type: "error", Message: msg} }
