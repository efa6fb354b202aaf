package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Registry maps user IDs to live connection handles. One live handle per
// user: a second register for the same user replaces (and closes) the first.
// State is process-local and rebuilt from zero on restart.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     *zap.SugaredLogger
}

func NewRegistry(log *zap.SugaredLogger) *Registry {
	return &Registry{
		clients: make(map[string]*Client),
		log:     log,
	}
}

// Register binds userID to the client, last write wins.
func (r *Registry) Register(userID string, c *Client) {
	r.mu.Lock()
	prev := r.clients[userID]
	r.clients[userID] = c
	r.mu.Unlock()

	if prev != nil && prev != c {
		prev.Close()
	}
	r.log.Debugw("client registered", "userId", userID, "socketId", c.SocketID())
}

func (r *Registry) Unregister(userID string) {
	r.mu.Lock()
	c := r.clients[userID]
	delete(r.clients, userID)
	r.mu.Unlock()

	if c != nil {
		c.Close()
	}
}

// Unbind drops the mapping but leaves the connection open; the peer keeps
// its socket and can register again.
func (r *Registry) Unbind(userID string) {
	r.mu.Lock()
	delete(r.clients, userID)
	r.mu.Unlock()
}

// Remove drops whatever mapping points at the handle; used on disconnect
// when only the connection is known. O(n) over live connections.
func (r *Registry) Remove(c *Client) {
	r.mu.Lock()
	for userID, cur := range r.clients {
		if cur == c {
			delete(r.clients, userID)
		}
	}
	r.mu.Unlock()
	c.Close()
}

// Send pushes payload to the user's live connection. Best-effort: returns
// false when the user has no live handle or the frame was dropped; never
// queues or retries.
func (r *Registry) Send(userID string, payload interface{}) bool {
	r.mu.RLock()
	c := r.clients[userID]
	r.mu.RUnlock()
	if c == nil {
		return false
	}

	b, err := json.Marshal(payload)
	if err != nil {
		r.log.Warnw("payload marshal failed", "userId", userID, "err", err)
		return false
	}
	return c.Enqueue(b)
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Sweep runs one liveness pass: connections that never answered the previous
// ping are terminated; everyone else has their alive flag cleared and gets a
// new ping. Two consecutive silent intervals remove a connection.
func (r *Registry) Sweep() {
	r.mu.RLock()
	snapshot := make(map[string]*Client, len(r.clients))
	for userID, c := range r.clients {
		snapshot[userID] = c
	}
	r.mu.RUnlock()

	for userID, c := range snapshot {
		if !c.isAlive() {
			r.log.Infow("terminating dead connection", "userId", userID, "socketId", c.SocketID())
			r.mu.Lock()
			if r.clients[userID] == c {
				delete(r.clients, userID)
			}
			r.mu.Unlock()
			c.Close()
			continue
		}
		c.resetAlive()
		if err := c.ping(); err != nil {
			r.log.Infow("ping failed, dropping connection", "userId", userID, "err", err)
			r.mu.Lock()
			if r.clients[userID] == c {
				delete(r.clients, userID)
			}
			r.mu.Unlock()
			c.Close()
		}
	}
}

// StartHeartbeat runs Sweep on the given interval until ctx is cancelled.
// This is the registry's only background task.
func (r *Registry) StartHeartbeat(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Sweep()
			}
		}
	}()
}

// Shutdown closes every live connection.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	clients := r.clients
	r.clients = make(map[string]*Client)
	r.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}
