// Package alerts fans high-priority assessments out to in-process
// subscribers (notification workers, log sinks). Delivery is best effort:
// slow subscribers are skipped rather than blocking the mutation path.
package alerts

import (
	"sync"
	"sync/atomic"

	"github.com/atlasheritage/heritage-risk/internal/models"
)

type Broadcaster struct {
	subscribers map[uint64]chan *models.Assessment
	nextID      atomic.Uint64
	mu          sync.RWMutex
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]chan *models.Assessment),
	}
}

func (b *Broadcaster) Subscribe() (uint64, chan *models.Assessment) {
	id := b.nextID.Add(1)
	ch := make(chan *models.Assessment, 100) // Buffer for burst batch imports

	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()

	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Broadcaster) Broadcast(a *models.Assessment) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- a:
		default:
			// Skip slow subscribers
		}
	}
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscriber channels, causing consumers to exit gracefully
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
