// Package projection maintains a client-local view of unread counts, seen
// markers and the active conversation, reconciled from events pushed by the
// server. Local mutations are advisory only, for immediate feedback; pushed
// values always overwrite local state, never merge with it.
package projection

import (
	"log"

	"github.com/npezzotti/go-dm/internal/types"
)

// Projection applies events on a single goroutine; it performs no locking of
// its own.
type Projection struct {
	selfId          int
	log             *log.Logger
	unread          map[int]int
	lastSeenMessage map[int]string
	active          int
	messages        []types.Message
	markers         SeenMarkerStore
	pendingReads    map[string]struct{}
}

func NewProjection(selfId int, markers SeenMarkerStore, logger *log.Logger) *Projection {
	p := &Projection{
		selfId:          selfId,
		log:             logger,
		unread:          make(map[int]int),
		lastSeenMessage: make(map[int]string),
		markers:         markers,
		pendingReads:    make(map[string]struct{}),
	}

	// seen markers survive a reload; everything else is rebuilt from events
	saved, err := markers.Load()
	if err != nil {
		logger.Println("load seen markers:", err)
	} else {
		for by, id := range saved {
			p.lastSeenMessage[by] = id
		}
	}

	return p
}

// ApplyUnreadUpdate records the authoritative unread count for one
// conversation. An update naming the user themself is ignored; a count of zero
// removes the entry rather than storing a zero.
func (p *Projection) ApplyUnreadUpdate(senderId, count int) {
	if senderId == p.selfId {
		return
	}

	if count > 0 {
		p.unread[senderId] = count
	} else {
		delete(p.unread, senderId)
	}
}

// ApplyNewMessage appends the message to the open conversation if it belongs
// there. Unread accounting is deliberately not derived from this event; only
// ApplyUnreadUpdate mutates counts, which is what prevents double counting.
func (p *Projection) ApplyNewMessage(msg types.Message) {
	if p.active == 0 {
		return
	}

	inConversation := (msg.SenderId == p.active && msg.ReceiverId == p.selfId) ||
		(msg.SenderId == p.selfId && msg.ReceiverId == p.active)
	if !inConversation {
		return
	}

	for _, m := range p.messages {
		if m.Id == msg.Id {
			return
		}
	}

	p.messages = append(p.messages, msg)
}

// ApplyMessageSeen records that user by has seen up to messageId and persists
// the marker so it survives a reload before the next authoritative sync.
func (p *Projection) ApplyMessageSeen(messageId string, by int) {
	if messageId == "" {
		return
	}

	p.lastSeenMessage[by] = messageId

	if err := p.markers.Save(p.seenMarkers()); err != nil {
		p.log.Println("save seen markers:", err)
	}
}

// SelectConversation opens the conversation with counterpartyId, clearing the
// local unread entry optimistically. It reports whether a server-side clear
// should be requested; calling the server clear with nothing outstanding is
// safe either way. Passing 0 closes the current conversation.
func (p *Projection) SelectConversation(counterpartyId int) bool {
	p.active = counterpartyId
	p.messages = nil

	if counterpartyId == 0 {
		return false
	}

	if _, ok := p.unread[counterpartyId]; !ok {
		return false
	}

	delete(p.unread, counterpartyId)
	return true
}

// MessageVisible is the view-intersection trigger: it reports whether a
// read-mark request should be issued for messageId. Rapid-fire duplicate
// triggers for the same id return false after the first.
func (p *Projection) MessageVisible(messageId string) bool {
	if messageId == "" {
		return false
	}

	if _, ok := p.pendingReads[messageId]; ok {
		return false
	}

	p.pendingReads[messageId] = struct{}{}
	return true
}

func (p *Projection) Unread(counterpartyId int) int {
	return p.unread[counterpartyId]
}

func (p *Projection) UnreadCounts() map[int]int {
	counts := make(map[int]int, len(p.unread))
	for id, count := range p.unread {
		counts[id] = count
	}

	return counts
}

func (p *Projection) LastSeenMessage(by int) (string, bool) {
	id, ok := p.lastSeenMessage[by]
	return id, ok
}

func (p *Projection) ActiveConversation() int {
	return p.active
}

func (p *Projection) Messages() []types.Message {
	msgs := make([]types.Message, len(p.messages))
	copy(msgs, p.messages)

	return msgs
}

func (p *Projection) seenMarkers() map[int]string {
	markers := make(map[int]string, len(p.lastSeenMessage))
	for by, id := range p.lastSeenMessage {
		markers[by] = id
	}

	return markers
}
