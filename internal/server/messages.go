package server

import (
	"time"

	"github.com/npezzotti/go-dm/internal/types"
)

// ClientMessage is the envelope for messages received over the websocket.
// Typing signals are the only client-originated events on this channel; all
// mutating operations arrive over the HTTP API.
type ClientMessage struct {
	Typing     *TypingRequest `json:"typing,omitempty"`
	StopTyping *TypingRequest `json:"stop_typing,omitempty"`
}

type TypingRequest struct {
	To int `json:"to"`
}

// ServerMessage is the envelope for events pushed to clients. Exactly one of
// the pointer fields is set.
type ServerMessage struct {
	Timestamp    time.Time      `json:"timestamp"`
	OnlineUsers  *OnlineUsers   `json:"online_users,omitempty"`
	UsersUpdated *UsersUpdated  `json:"users_updated,omitempty"`
	NewMessage   *types.Message `json:"new_message,omitempty"`
	UnreadUpdate *UnreadUpdate  `json:"unread_update,omitempty"`
	MessageSeen  *MessageSeen   `json:"message_seen,omitempty"`
	Typing       *TypingEvent   `json:"typing,omitempty"`
	StopTyping   *TypingEvent   `json:"stop_typing,omitempty"`
}

// OnlineUsers is a full replacement of the online set, broadcast on every
// connect and disconnect.
type OnlineUsers struct {
	UserIds []int `json:"user_ids"`
}

// UsersUpdated is a full replacement of the user roster, credentials excluded.
type UsersUpdated struct {
	Users []types.User `json:"users"`
}

// UnreadUpdate carries the authoritative unread count for one conversation.
type UnreadUpdate struct {
	SenderId int `json:"sender_id"`
	Count    int `json:"count"`
}

// MessageSeen notifies a message's sender that the receiver has seen it. One
// representative notification is sent per completed read batch.
type MessageSeen struct {
	MessageId string    `json:"message_id"`
	SeenAt    time.Time `json:"seen_at"`
	By        int       `json:"by"`
}

type TypingEvent struct {
	From int `json:"from"`
}

func newOnlineUsers(ids []int) *ServerMessage {
	return &ServerMessage{
		Timestamp:   Now(),
		OnlineUsers: &OnlineUsers{UserIds: ids},
	}
}

func newUsersUpdated(users []types.User) *ServerMessage {
	return &ServerMessage{
		Timestamp:    Now(),
		UsersUpdated: &UsersUpdated{Users: users},
	}
}

func newMessageNotification(msg types.Message) *ServerMessage {
	return &ServerMessage{
		Timestamp:  Now(),
		NewMessage: &msg,
	}
}

func newUnreadUpdate(senderId, count int) *ServerMessage {
	return &ServerMessage{
		Timestamp:    Now(),
		UnreadUpdate: &UnreadUpdate{SenderId: senderId, Count: count},
	}
}

func newMessageSeen(messageId string, seenAt time.Time, by int) *ServerMessage {
	return &ServerMessage{
		Timestamp:   Now(),
		MessageSeen: &MessageSeen{MessageId: messageId, SeenAt: seenAt, By: by},
	}
}

func newTypingEvent(from int, stopped bool) *ServerMessage {
	msg := &ServerMessage{Timestamp: Now()}
	if stopped {
		msg.StopTyping = &TypingEvent{From: from}
	} else {
		msg.Typing = &TypingEvent{From: from}
	}
	return msg
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
