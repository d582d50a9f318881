package server

import (
	"testing"

	"github.com/npezzotti/go-dm/internal/testutil"
	"github.com/npezzotti/go-dm/internal/types"
	"github.com/stretchr/testify/assert"
)

func Test_queueMessage(t *testing.T) {
	c := &Client{
		log:  testutil.TestLogger(t),
		user: types.User{Id: 1},
		send: make(chan *ServerMessage, 1),
		stop: make(chan struct{}),
	}

	ok := c.queueMessage(newUnreadUpdate(2, 1))
	assert.True(t, ok, "expected message to be queued")

	// buffer is full, message is dropped rather than blocking
	ok = c.queueMessage(newUnreadUpdate(2, 2))
	assert.False(t, ok, "expected message to be dropped when buffer is full")
	assert.Len(t, c.send, 1, "expected only the first message to be queued")
}

func Test_stopClient(t *testing.T) {
	c := &Client{
		log:  testutil.TestLogger(t),
		user: types.User{Id: 1},
		send: make(chan *ServerMessage, 1),
		stop: make(chan struct{}),
	}

	c.stopClient()
	select {
	case <-c.stop:
	default:
		t.Fatal("expected stop channel to be closed")
	}

	// second stop from the displacing run loop must not panic
	c.stopClient()
}
