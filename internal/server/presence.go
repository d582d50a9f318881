package server

import (
	"sort"
	"sync"
)

// PresenceRegistry maps a user id to its single live connection. Entries are
// mutated only from the ChatServer run loop (register/deregister), but resolved
// from arbitrary request-handling goroutines, so lookups take a read lock. The
// registry is not persisted; reconnects repopulate it after a restart.
type PresenceRegistry struct {
	mu      sync.RWMutex
	clients map[int]*Client
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		clients: make(map[int]*Client),
	}
}

// Connect registers c as the live connection for userId. The last connection
// wins: any previously registered client is returned so the caller can stop it.
func (p *PresenceRegistry) Connect(userId int, c *Client) *Client {
	p.mu.Lock()
	defer p.mu.Unlock()

	prev := p.clients[userId]
	p.clients[userId] = c

	return prev
}

// Disconnect removes the entry for userId, but only if c is still the
// registered connection. A displaced client cleaning itself up must not evict
// its replacement.
func (p *PresenceRegistry) Disconnect(userId int, c *Client) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.clients[userId] != c {
		return false
	}

	delete(p.clients, userId)
	return true
}

func (p *PresenceRegistry) Resolve(userId int) *Client {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.clients[userId]
}

func (p *PresenceRegistry) OnlineIds() []int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]int, 0, len(p.clients))
	for id := range p.clients {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	return ids
}

func (p *PresenceRegistry) All() []*Client {
	p.mu.RLock()
	defer p.mu.RUnlock()

	clients := make([]*Client, 0, len(p.clients))
	for _, c := range p.clients {
		clients = append(clients, c)
	}

	return clients
}
