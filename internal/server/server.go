package server

import (
	"context"
	"log"

	"github.com/npezzotti/go-dm/internal/database"
	"github.com/npezzotti/go-dm/internal/stats"
	"github.com/npezzotti/go-dm/internal/types"
)

const (
	metricConnectedClients = "NumConnectedClients"
	metricMessagesSent     = "NumMessagesSent"
	metricMessagesRead     = "NumMessagesRead"
)

type stopReq struct {
	done chan struct{}
}

type ChatServer struct {
	log            *log.Logger
	db             database.DirectMessageRepository
	stats          stats.StatsProvider
	presence       *PresenceRegistry
	RegisterChan   chan *Client
	deRegisterChan chan *Client
	stop           chan stopReq
}

func NewChatServer(logger *log.Logger, db database.DirectMessageRepository, su stats.StatsProvider) (*ChatServer, error) {
	cs := &ChatServer{
		log:            logger,
		db:             db,
		stats:          su,
		presence:       NewPresenceRegistry(),
		RegisterChan:   make(chan *Client),
		deRegisterChan: make(chan *Client),
		stop:           make(chan stopReq),
	}

	su.RegisterMetric(metricConnectedClients)
	su.RegisterMetric(metricMessagesSent)
	su.RegisterMetric(metricMessagesRead)

	return cs, nil
}

// Run owns all presence mutations; clients register and deregister through
// channels so each entry has a single writer.
func (cs *ChatServer) Run() {
	for {
		select {
		case client := <-cs.RegisterChan:
			cs.log.Printf("adding connection from %q", client.user.Username)
			if prev := cs.presence.Connect(client.user.Id, client); prev != nil {
				// last connection wins
				cs.log.Printf("displacing previous connection for %q", client.user.Username)
				prev.stopClient()
			}
			cs.stats.Incr(metricConnectedClients)
			cs.broadcastPresence()
		case client := <-cs.deRegisterChan:
			cs.log.Printf("removing connection from %q", client.user.Username)
			cs.stats.Decr(metricConnectedClients)
			if cs.presence.Disconnect(client.user.Id, client) {
				if err := cs.db.UpdateLastSeen(client.user.Id, Now()); err != nil {
					cs.log.Println("update last seen:", err)
				}
				cs.broadcastPresence()
			}
		case req := <-cs.stop:
			cs.log.Println("stopping clients")
			for _, c := range cs.presence.All() {
				c.stopClient()
			}

			close(req.done)
			return
		}
	}
}

// RegisterClient hands a newly upgraded connection to the run loop.
func (cs *ChatServer) RegisterClient(c *Client) {
	cs.RegisterChan <- c
}

func (cs *ChatServer) Shutdown(ctx context.Context) error {
	req := stopReq{done: make(chan struct{})}

	select {
	case cs.stop <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// notify delivers msg to userId's live connection, if any. Delivery is
// fire-and-forget, at most once: a disconnected target or a full send buffer
// simply drops the event.
func (cs *ChatServer) notify(userId int, msg *ServerMessage) bool {
	c := cs.presence.Resolve(userId)
	if c == nil {
		return false
	}

	return c.queueMessage(msg)
}

// broadcastPresence pushes the full online id set and the full roster to every
// connected client.
func (cs *ChatServer) broadcastPresence() {
	online := newOnlineUsers(cs.presence.OnlineIds())

	var roster *ServerMessage
	accounts, err := cs.db.ListAccounts()
	if err != nil {
		cs.log.Println("list accounts:", err)
	} else {
		users := make([]types.User, 0, len(accounts))
		for _, a := range accounts {
			users = append(users, toWireUser(a))
		}
		roster = newUsersUpdated(users)
	}

	for _, c := range cs.presence.All() {
		c.queueMessage(online)
		if roster != nil {
			c.queueMessage(roster)
		}
	}
}

func toWireUser(u database.User) types.User {
	user := types.User{
		Id:           u.Id,
		Username:     u.Username,
		EmailAddress: u.EmailAddress,
		UnreadFrom:   u.UnreadFrom,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}

	if u.LastSeen.Valid {
		t := u.LastSeen.Time
		user.LastSeen = &t
	}

	return user
}

func toWireMessage(m database.Message) types.Message {
	msg := types.Message{
		Id:         m.ExternalId,
		SenderId:   m.SenderId,
		ReceiverId: m.ReceiverId,
		Text:       m.Text,
		Image:      m.Image,
		Read:       m.Read,
		CreatedAt:  m.CreatedAt,
	}

	if m.SeenAt.Valid {
		t := m.SeenAt.Time
		msg.SeenAt = &t
	}

	return msg
}
