package database

import (
	"database/sql"
	"time"
)

type User struct {
	Id           int
	Username     string
	EmailAddress string
	PasswordHash string
	UnreadFrom   map[int]int
	LastSeen     sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Message struct {
	Id         int
	ExternalId string
	SenderId   int
	ReceiverId int
	Text       string
	Image      string
	Read       bool
	SeenAt     sql.NullTime
	CreatedAt  time.Time
}

// UnreadKey addresses one ledger counter: the number of messages SenderId has
// sent to ReceiverId which ReceiverId has not read.
type UnreadKey struct {
	ReceiverId int
	SenderId   int
}

type CreateAccountParams struct {
	Username     string
	EmailAddress string
	PasswordHash string
}

type CreateMessageParams struct {
	ExternalId string
	SenderId   int
	ReceiverId int
	Text       string
	Image      string
}
