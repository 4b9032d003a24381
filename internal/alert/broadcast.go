package alert

import (
	"sync"

	"github.com/google/uuid"
)

// Broadcaster delivers warnings to subscribers such as SSE clients. A slow
// subscriber misses warnings rather than blocking the pose handler.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[string]chan string
	closed      bool
}

// NewBroadcaster returns an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subscribers: make(map[string]chan string)}
}

// Subscribe registers a new buffered channel. After Close it returns a
// closed channel so callers don't block.
func (b *Broadcaster) Subscribe() (string, <-chan string) {
	id := uuid.NewString()
	ch := make(chan string, 4)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return id, ch
	}
	b.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes and closes a subscriber channel.
func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
}

// Warn sends message to every subscriber without blocking.
func (b *Broadcaster) Warn(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- message:
		default:
		}
	}
}

// Close closes every subscriber channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
