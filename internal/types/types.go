package types

import (
	"time"
)

// User is the wire representation of an account. UnreadFrom maps a sender's
// account id to the number of messages from that sender the user has not yet
// read; an absent key means zero.
type User struct {
	Id           int         `json:"id"`
	Username     string      `json:"username"`
	EmailAddress string      `json:"email_address,omitempty"`
	Password     string      `json:"-"`
	UnreadFrom   map[int]int `json:"unread_from,omitempty"`
	LastSeen     *time.Time  `json:"last_seen,omitempty"`
	CreatedAt    time.Time   `json:"created_at,omitempty"`
	UpdatedAt    time.Time   `json:"updated_at,omitempty"`
}

// Message is a direct message between two users. Id is the external short id;
// internal serial ids never leave the server. Read and SeenAt transition exactly
// once, when the message is included in a completed read batch.
type Message struct {
	Id         string     `json:"id"`
	SenderId   int        `json:"sender_id"`
	ReceiverId int        `json:"receiver_id"`
	Text       string     `json:"text,omitempty"`
	Image      string     `json:"image,omitempty"`
	Read       bool       `json:"read"`
	SeenAt     *time.Time `json:"seen_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
