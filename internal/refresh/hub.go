package refresh

import (
	"sync"
	"time"
)

const (
	EventRecordCreated = "record_created"
	EventViewRefreshed = "view_refreshed"
	EventRefreshFailed = "refresh_failed"
)

type Event struct {
	Type      string    `json:"type"`
	Kind      string    `json:"kind,omitempty"`
	View      View      `json:"view,omitempty"`
	RecordID  int64     `json:"record_id,omitempty"`
	Month     string    `json:"month,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub fans events out to subscribers. Slow subscribers miss events rather
// than block publishers.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
	now  func() time.Time
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{}), now: time.Now}
}

// Subscribe returns a buffered event channel and a function that cancels
// the subscription and closes the channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = h.now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribers reports the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
