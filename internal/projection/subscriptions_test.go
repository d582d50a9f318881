package projection

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptions_Dispatch(t *testing.T) {
	s := NewSubscriptions()

	var got json.RawMessage
	s.Subscribe(EventUnreadUpdate, func(payload json.RawMessage) {
		got = payload
	})

	payload := json.RawMessage(`{"sender_id":2,"count":3}`)
	handled := s.Dispatch(EventUnreadUpdate, payload)
	assert.True(t, handled, "expected event to be handled")
	assert.Equal(t, payload, got, "expected payload to reach the handler")

	handled = s.Dispatch(EventMessageSeen, payload)
	assert.False(t, handled, "expected unregistered event to be unhandled")
}

func TestSubscriptions_ResubscribeReplaces(t *testing.T) {
	s := NewSubscriptions()

	var firstCalls, secondCalls int
	s.Subscribe(EventNewMessage, func(json.RawMessage) { firstCalls++ })
	s.Subscribe(EventNewMessage, func(json.RawMessage) { secondCalls++ })

	s.Dispatch(EventNewMessage, nil)
	assert.Equal(t, 0, firstCalls, "expected replaced handler to never fire")
	assert.Equal(t, 1, secondCalls, "expected exactly one handler invocation per event")
}

func TestSubscriptions_Unsubscribe(t *testing.T) {
	t.Run("unsubscribe func removes the handler", func(t *testing.T) {
		s := NewSubscriptions()

		unsub := s.Subscribe(EventTyping, func(json.RawMessage) {})
		unsub()

		assert.False(t, s.Dispatch(EventTyping, nil), "expected no handler after unsubscribe")
	})

	t.Run("stale unsubscribe func does not evict replacement", func(t *testing.T) {
		s := NewSubscriptions()

		var calls int
		unsub := s.Subscribe(EventTyping, func(json.RawMessage) {})
		s.Subscribe(EventTyping, func(json.RawMessage) { calls++ })

		unsub()
		assert.True(t, s.Dispatch(EventTyping, nil), "expected replacement handler to survive stale unsubscribe")
		assert.Equal(t, 1, calls, "expected replacement handler to fire")
	})

	t.Run("unsubscribe by event name", func(t *testing.T) {
		s := NewSubscriptions()

		s.Subscribe(EventStopTyping, func(json.RawMessage) {})
		s.Unsubscribe(EventStopTyping)

		assert.False(t, s.Dispatch(EventStopTyping, nil), "expected no handler after unsubscribe")
	})
}
