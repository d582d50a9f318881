package server

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/npezzotti/go-dm/internal/database"
	"github.com/npezzotti/go-dm/internal/types"
	"github.com/teris-io/shortid"
)

var (
	ErrMissingContent = errors.New("message requires text or an image")
	ErrEmptyBatch     = errors.New("read batch is empty")
	ErrInvalidBatch   = errors.New("read batch contains a blank message id")
)

// SendMessage persists a message from senderId to receiverId, charges the
// receiver's unread ledger and notifies the receiver's live connection. The
// unread count pushed to the client is re-read after the increment rather than
// taken from the increment itself, so interleaved sends from other senders are
// reflected; the persisted ledger never depends on that read.
func (cs *ChatServer) SendMessage(senderId, receiverId int, text, image string) (types.Message, error) {
	if text == "" && image == "" {
		return types.Message{}, ErrMissingContent
	}

	extId, err := shortid.Generate()
	if err != nil {
		return types.Message{}, fmt.Errorf("generate message id: %w", err)
	}

	msg, err := cs.db.CreateMessage(database.CreateMessageParams{
		ExternalId: extId,
		SenderId:   senderId,
		ReceiverId: receiverId,
		Text:       text,
		Image:      image,
	})
	if err != nil {
		return types.Message{}, fmt.Errorf("create message: %w", err)
	}

	newCount, err := cs.db.IncrementUnread(receiverId, senderId)
	if err != nil {
		return types.Message{}, fmt.Errorf("increment unread: %w", err)
	}

	count, err := cs.db.GetUnreadCount(receiverId, senderId)
	if err != nil {
		cs.log.Println("read unread count:", err)
		count = newCount
	}

	wireMsg := toWireMessage(msg)
	cs.notify(receiverId, newUnreadUpdate(senderId, count))
	cs.notify(receiverId, newMessageNotification(wireMsg))

	cs.stats.Incr(metricMessagesSent)

	return wireMsg, nil
}

// MarkMessagesRead transitions a batch of messages addressed to receiverId
// from unread to read. Unknown ids and already-read messages are skipped, so
// retries and rapid-fire duplicate requests settle on the same ledger state.
// The receiver's own connection gets the resulting count per conversation; the
// sender of the most recently seen message in the batch gets one seen receipt.
func (cs *ChatServer) MarkMessagesRead(receiverId int, externalIds []string) error {
	if len(externalIds) == 0 {
		return ErrEmptyBatch
	}
	for _, id := range externalIds {
		if id == "" {
			return ErrInvalidBatch
		}
	}

	readMessages, counts, err := cs.db.ReadMessages(receiverId, externalIds, Now())
	if err != nil {
		return fmt.Errorf("read messages: %w", err)
	}

	for key, count := range counts {
		cs.notify(key.ReceiverId, newUnreadUpdate(key.SenderId, count))
	}

	if len(readMessages) == 0 {
		return nil
	}

	for range readMessages {
		cs.stats.Incr(metricMessagesRead)
	}

	senderIds := make([]int, 0, len(counts))
	for key := range counts {
		senderIds = append(senderIds, key.SenderId)
	}

	lastSeen, err := cs.db.LatestSeenMessage(receiverId, senderIds)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("latest seen message: %w", err)
	}

	cs.notify(lastSeen.SenderId, newMessageSeen(lastSeen.ExternalId, lastSeen.SeenAt.Time, receiverId))

	return nil
}

// ClearUnread force-clears the ledger entry for one conversation, regardless
// of how many messages are actually outstanding. This backs the optimistic
// clear a client performs when opening a conversation; the client re-derives
// the true count from subsequent unread updates.
func (cs *ChatServer) ClearUnread(userId, senderId int) error {
	if err := cs.db.ClearUnread(userId, senderId); err != nil {
		return fmt.Errorf("clear unread: %w", err)
	}

	cs.notify(userId, newUnreadUpdate(senderId, 0))

	return nil
}

// RelayTyping forwards a transient typing signal to the target's live
// connection. Nothing is persisted and a disconnected target is not an error.
func (cs *ChatServer) RelayTyping(fromId, toId int, stopped bool) {
	cs.notify(toId, newTypingEvent(fromId, stopped))
}
