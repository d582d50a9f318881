package database

import (
	"time"

	"github.com/stretchr/testify/mock"
)

type MockDirectMessageRepository struct {
	mock.Mock
}

func (m *MockDirectMessageRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockDirectMessageRepository) CreateAccount(params CreateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockDirectMessageRepository) GetAccountById(accountId int) (User, error) {
	args := m.Called(accountId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockDirectMessageRepository) GetAccountByEmail(email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockDirectMessageRepository) ListAccounts() ([]User, error) {
	args := m.Called()
	return args.Get(0).([]User), args.Error(1)
}
func (m *MockDirectMessageRepository) UpdateLastSeen(accountId int, lastSeen time.Time) error {
	args := m.Called(accountId, lastSeen)
	return args.Error(0)
}
func (m *MockDirectMessageRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	args := m.Called(params)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockDirectMessageRepository) GetConversation(accountId, otherId int) ([]Message, error) {
	args := m.Called(accountId, otherId)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockDirectMessageRepository) ReadMessages(receiverId int, externalIds []string, seenAt time.Time) ([]Message, map[UnreadKey]int, error) {
	args := m.Called(receiverId, externalIds, seenAt)
	return args.Get(0).([]Message), args.Get(1).(map[UnreadKey]int), args.Error(2)
}
func (m *MockDirectMessageRepository) LatestSeenMessage(receiverId int, senderIds []int) (Message, error) {
	args := m.Called(receiverId, senderIds)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockDirectMessageRepository) IncrementUnread(receiverId, senderId int) (int, error) {
	args := m.Called(receiverId, senderId)
	return args.Int(0), args.Error(1)
}
func (m *MockDirectMessageRepository) ClearUnread(receiverId, senderId int) error {
	args := m.Called(receiverId, senderId)
	return args.Error(0)
}
func (m *MockDirectMessageRepository) GetUnreadCount(receiverId, senderId int) (int, error) {
	args := m.Called(receiverId, senderId)
	return args.Int(0), args.Error(1)
}
func (m *MockDirectMessageRepository) GetUnreadCounts(receiverId int) (map[int]int, error) {
	args := m.Called(receiverId)
	return args.Get(0).(map[int]int), args.Error(1)
}
