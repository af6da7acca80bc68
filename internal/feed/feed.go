// Package feed is an in-process change feed: stores publish row changes per
// table and subscribers receive them until they unsubscribe.
package feed

import (
	"log"
	"sort"
	"sync"
	"time"
)

// EventType is the kind of row change.
type EventType string

const (
	Insert EventType = "INSERT"
	Update EventType = "UPDATE"
	Delete EventType = "DELETE"
)

// Change is one row change on a table. New is set for inserts and updates,
// Old for updates and deletes.
type Change struct {
	Table string    `json:"table"`
	Type  EventType `json:"eventType"`
	New   any       `json:"new,omitempty"`
	Old   any       `json:"old,omitempty"`
	At    time.Time `json:"commit_timestamp"`
}

// Hub fans changes out to subscribers. It is safe for concurrent use.
type Hub struct {
	logger *log.Logger

	mu   sync.RWMutex
	next uint64
	subs map[string]map[uint64]func(Change)
}

// NewHub returns an empty hub. A nil logger logs through the standard logger.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		logger: logger,
		subs:   make(map[string]map[uint64]func(Change)),
	}
}

// Subscribe registers onChange for every change on table. The returned
// subscription must be unsubscribed to stop delivery.
func (h *Hub) Subscribe(table string, onChange func(Change)) *Subscription {
	h.mu.Lock()
	h.next++
	id := h.next
	if h.subs[table] == nil {
		h.subs[table] = make(map[uint64]func(Change))
	}
	h.subs[table][id] = onChange
	h.mu.Unlock()

	h.logger.Printf("Subscribed to table %s", table)
	return &Subscription{hub: h, table: table, id: id}
}

// Publish delivers c to the table's subscribers in subscription order.
// Callbacks run outside the hub lock, so they may subscribe or unsubscribe.
func (h *Hub) Publish(c Change) {
	if c.At.IsZero() {
		c.At = time.Now().UTC()
	}
	h.mu.RLock()
	ids := make([]uint64, 0, len(h.subs[c.Table]))
	for id := range h.subs[c.Table] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	callbacks := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		callbacks = append(callbacks, h.subs[c.Table][id])
	}
	h.mu.RUnlock()

	for _, fn := range callbacks {
		fn(c)
	}
}

// Subscribers returns the number of live subscriptions on table.
func (h *Hub) Subscribers(table string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[table])
}

func (h *Hub) remove(table string, id uint64) {
	h.mu.Lock()
	delete(h.subs[table], id)
	if len(h.subs[table]) == 0 {
		delete(h.subs, table)
	}
	h.mu.Unlock()
	h.logger.Printf("Unsubscribed from table %s", table)
}

// Subscription is a live registration on a Hub.
type Subscription struct {
	hub   *Hub
	table string
	id    uint64
	once  sync.Once
}

// Table returns the subscribed table.
func (s *Subscription) Table() string { return s.table }

// Unsubscribe stops delivery. Calling it more than once is a no-op.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.hub == nil {
		return
	}
	s.once.Do(func() { s.hub.remove(s.table, s.id) })
}
