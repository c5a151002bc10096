package session

import (
	"sync"

	"github.com/sushrusha/sushrusha/pkg/domain"
)

// broadcaster fans snapshots out to subscribers. Each subscriber channel
// holds at most one pending snapshot: a slow reader misses intermediate
// snapshots but always receives the latest one.
type broadcaster struct {
	mu          sync.Mutex
	subscribers map[chan domain.Snapshot]struct{}
	closed      bool
}

func newBroadcaster() *broadcaster {
	return &broadcaster{
		subscribers: make(map[chan domain.Snapshot]struct{}),
	}
}

// subscribe registers a channel primed with current. The returned func
// unsubscribes and closes the channel; it is safe to call more than once.
func (b *broadcaster) subscribe(current domain.Snapshot) (<-chan domain.Snapshot, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan domain.Snapshot, 1)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	ch <- current
	b.subscribers[ch] = struct{}{}

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
	}
}

// publish replaces whatever snapshot is still pending on each channel.
func (b *broadcaster) publish(snap domain.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subscribers {
		select {
		case <-ch:
		default:
		}
		// Only publish sends, under b.mu, so the buffer has room now.
		ch <- snap
	}
}

// close ends every subscription. Later subscribers get a closed channel.
func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subscribers {
		delete(b.subscribers, ch)
		close(ch)
	}
}

func (b *broadcaster) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
