package server

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/npezzotti/go-dm/internal/database"
	"github.com/npezzotti/go-dm/internal/stats"
	"github.com/npezzotti/go-dm/internal/testutil"
	"github.com/npezzotti/go-dm/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func alice() types.User {
	return types.User{Id: 1, Username: "alice"}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: true}
}

func TestNewChatServer(t *testing.T) {
	db := &database.MockDirectMessageRepository{}
	defer db.AssertExpectations(t)

	su := &stats.MockStatsUpdater{}
	defer su.AssertExpectations(t)
	su.On("RegisterMetric", mock.Anything).Times(3)

	logger := testutil.TestLogger(t)
	cs, err := NewChatServer(logger, db, su)
	assert.NoError(t, err, "expected no error creating ChatServer")
	assert.NotNil(t, cs, "expected ChatServer to be non-nil")
	assert.Equal(t, logger, cs.log, "expected logger to be set")
	assert.Equal(t, db, cs.db, "expected database repository to be set")
	assert.NotNil(t, cs.presence, "expected presence registry to be initialized")
	assert.NotNil(t, cs.RegisterChan, "expected RegisterChan to be initialized")
	assert.NotNil(t, cs.deRegisterChan, "expected deRegisterChan to be initialized")
	assert.NotNil(t, cs.stop, "expected stop channel to be initialized")
}

func TestChatServerShutdown(t *testing.T) {
	t.Run("successful shutdown", func(t *testing.T) {
		cs := newTestChatServer(t, &database.MockDirectMessageRepository{}, &stats.MockStatsUpdater{})

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		go func() {
			select {
			case req := <-cs.stop:
				assert.NotNil(t, req.done, "expected done channel in stop request")
				close(req.done)
			case <-time.After(100 * time.Millisecond):
				t.Error("expected signal on stop chan")
			}
		}()

		err := cs.Shutdown(ctx)
		assert.NoError(t, err, "expected successful shutdown without error")
	})

	t.Run("fails with context deadline exceeded", func(t *testing.T) {
		cs := newTestChatServer(t, &database.MockDirectMessageRepository{}, &stats.MockStatsUpdater{})

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		go func() {
			select {
			case <-cs.stop:
				// never close req.done to simulate a hang
			case <-time.After(100 * time.Millisecond):
				t.Error("expected signal on stop chan")
			}
		}()

		err := cs.Shutdown(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded, "expected context deadline exceeded error, got %v", err)
	})
}

func TestChatServerRun_RegisterDeregister(t *testing.T) {
	db := &database.MockDirectMessageRepository{}
	defer db.AssertExpectations(t)
	su := &stats.MockStatsUpdater{}
	defer su.AssertExpectations(t)

	su.On("Incr", "NumConnectedClients").Once()
	su.On("Decr", "NumConnectedClients").Once()

	// presence broadcast on both connect and disconnect
	db.On("ListAccounts").Return([]database.User{{Id: 1, Username: "alice"}}, nil).Times(2)
	db.On("UpdateLastSeen", 1, mock.Anything).Return(nil).Once()

	cs := newTestChatServer(t, db, su)
	go cs.Run()

	c := &Client{
		chatServer: cs,
		log:        testutil.TestLogger(t),
		user:       alice(),
		send:       make(chan *ServerMessage, 256),
		stop:       make(chan struct{}),
	}

	cs.RegisterClient(c)
	assert.Eventually(t, func() bool {
		return cs.presence.Resolve(1) == c
	}, time.Second, 10*time.Millisecond, "expected client to be registered")

	// registered client receives the online set and the roster
	assert.Eventually(t, func() bool {
		return len(c.send) == 2
	}, time.Second, 10*time.Millisecond, "expected presence broadcast after register")

	online := receiveMessage(t, c)
	assert.NotNil(t, online.OnlineUsers, "expected online users event first")
	assert.Equal(t, []int{1}, online.OnlineUsers.UserIds, "expected full online id set")

	roster := receiveMessage(t, c)
	assert.NotNil(t, roster.UsersUpdated, "expected roster event")
	assert.Len(t, roster.UsersUpdated.Users, 1, "expected full roster")

	cs.deRegisterChan <- c
	assert.Eventually(t, func() bool {
		return cs.presence.Resolve(1) == nil
	}, time.Second, 10*time.Millisecond, "expected client to be removed")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, cs.Shutdown(ctx), "expected shutdown to succeed")
}

func TestChatServerRun_LastConnectionWins(t *testing.T) {
	db := &database.MockDirectMessageRepository{}
	defer db.AssertExpectations(t)
	su := &stats.MockStatsUpdater{}
	defer su.AssertExpectations(t)

	su.On("Incr", "NumConnectedClients").Times(2)
	db.On("ListAccounts").Return([]database.User{{Id: 1, Username: "alice"}}, nil).Times(2)

	cs := newTestChatServer(t, db, su)
	go cs.Run()

	c1 := &Client{
		chatServer: cs,
		log:        testutil.TestLogger(t),
		user:       alice(),
		send:       make(chan *ServerMessage, 256),
		stop:       make(chan struct{}),
	}
	c2 := &Client{
		chatServer: cs,
		log:        testutil.TestLogger(t),
		user:       alice(),
		send:       make(chan *ServerMessage, 256),
		stop:       make(chan struct{}),
	}

	cs.RegisterClient(c1)
	cs.RegisterClient(c2)

	assert.Eventually(t, func() bool {
		return cs.presence.Resolve(1) == c2
	}, time.Second, 10*time.Millisecond, "expected newest connection to win")

	select {
	case <-c1.stop:
	case <-time.After(time.Second):
		t.Fatal("expected displaced connection to be stopped")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, cs.Shutdown(ctx), "expected shutdown to succeed")

	// shutdown stops the remaining connection
	select {
	case <-c2.stop:
	case <-time.After(time.Second):
		t.Fatal("expected remaining connection to be stopped on shutdown")
	}
}

func Test_notify(t *testing.T) {
	db := &database.MockDirectMessageRepository{}
	defer db.AssertExpectations(t)
	su := &stats.MockStatsUpdater{}
	defer su.AssertExpectations(t)

	cs := newTestChatServer(t, db, su)

	t.Run("disconnected user drops the event", func(t *testing.T) {
		ok := cs.notify(42, newUnreadUpdate(1, 1))
		assert.False(t, ok, "expected delivery to fail for offline user")
	})

	t.Run("connected user receives the event", func(t *testing.T) {
		c := newTestClient(t, cs, 2)
		ok := cs.notify(2, newUnreadUpdate(1, 1))
		assert.True(t, ok, "expected delivery to succeed for online user")
		assert.Len(t, c.send, 1, "expected one queued message")
	})
}

func Test_toWireMessage(t *testing.T) {
	t.Run("unread message", func(t *testing.T) {
		m := toWireMessage(database.Message{Id: 1, ExternalId: "abc123", SenderId: 1, ReceiverId: 2, Text: "hi"})
		assert.Equal(t, "abc123", m.Id, "expected external id on the wire")
		assert.Nil(t, m.SeenAt, "expected no seen time for unread message")
	})

	t.Run("seen message", func(t *testing.T) {
		seenAt := Now()
		m := toWireMessage(database.Message{ExternalId: "abc123", Read: true, SeenAt: nullTime(seenAt)})
		assert.True(t, m.Read, "expected read flag to be carried")
		if assert.NotNil(t, m.SeenAt, "expected seen time to be carried") {
			assert.Equal(t, seenAt, *m.SeenAt, "expected seen time to match")
		}
	})
}
