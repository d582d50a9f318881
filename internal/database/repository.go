package database

import "time"

type DirectMessageRepository interface {
	Ping() error
	CreateAccount(params CreateAccountParams) (User, error)
	GetAccountById(accountId int) (User, error)
	GetAccountByEmail(email string) (User, error)
	ListAccounts() ([]User, error)
	UpdateLastSeen(accountId int, lastSeen time.Time) error
	CreateMessage(params CreateMessageParams) (Message, error)
	GetConversation(accountId, otherId int) ([]Message, error)
	ReadMessages(receiverId int, externalIds []string, seenAt time.Time) ([]Message, map[UnreadKey]int, error)
	LatestSeenMessage(receiverId int, senderIds []int) (Message, error)
	IncrementUnread(receiverId, senderId int) (int, error)
	ClearUnread(receiverId, senderId int) error
	GetUnreadCount(receiverId, senderId int) (int, error)
	GetUnreadCounts(receiverId int) (map[int]int, error)
}
