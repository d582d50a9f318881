package projection

import "encoding/json"

// Event names as they appear in the server's push envelope.
const (
	EventOnlineUsers  = "online_users"
	EventUsersUpdated = "users_updated"
	EventNewMessage   = "new_message"
	EventUnreadUpdate = "unread_update"
	EventMessageSeen  = "message_seen"
	EventTyping       = "typing"
	EventStopTyping   = "stop_typing"
)

type Handler func(payload json.RawMessage)

type registration struct {
	id      int
	handler Handler
}

// Subscriptions routes decoded events to handlers. At most one handler is
// registered per event name: subscribing again replaces the previous handler,
// so a careless re-subscribe cannot cause duplicate handler invocation. Like
// the projection itself it is driven from a single goroutine.
type Subscriptions struct {
	handlers map[string]registration
	nextId   int
}

func NewSubscriptions() *Subscriptions {
	return &Subscriptions{
		handlers: make(map[string]registration),
	}
}

// Subscribe registers h for event and returns an unsubscribe func. The
// returned func is a no-op if the registration has since been replaced.
func (s *Subscriptions) Subscribe(event string, h Handler) func() {
	s.nextId++
	id := s.nextId
	s.handlers[event] = registration{id: id, handler: h}

	return func() {
		if reg, ok := s.handlers[event]; ok && reg.id == id {
			delete(s.handlers, event)
		}
	}
}

func (s *Subscriptions) Unsubscribe(event string) {
	delete(s.handlers, event)
}

// Dispatch invokes the handler for event, reporting whether one was
// registered.
func (s *Subscriptions) Dispatch(event string, payload json.RawMessage) bool {
	reg, ok := s.handlers[event]
	if !ok {
		return false
	}

	reg.handler(payload)
	return true
}
