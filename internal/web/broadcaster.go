package web

import (
	"context"
	"sync"
	"time"

	"gpsfuse/internal/gps"
)

// Broadcaster fans out GPS snapshots to stream listeners. It keeps the most
// recent value so new subscribers get an immediate sample.
type Broadcaster struct {
	mu       sync.RWMutex
	subs     map[int]chan gps.Snapshot
	nextID   int
	last     gps.Snapshot
	haveLast bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[int]chan gps.Snapshot),
	}
}

func (b *Broadcaster) Subscribe(buffer int) (int, <-chan gps.Snapshot) {
	if b == nil {
		return 0, nil
	}
	if buffer <= 0 {
		buffer = 2
	}
	ch := make(chan gps.Snapshot, buffer)
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	last := b.last
	have := b.haveLast
	b.mu.Unlock()
	if have {
		select {
		case ch <- last:
		default:
		}
	}
	return id, ch
}

func (b *Broadcaster) Unsubscribe(id int) {
	if b == nil {
		return
	}
	b.mu.Lock()
	ch, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish delivers snap to every subscriber that has room; slow listeners
// miss samples rather than block the publisher.
func (b *Broadcaster) Publish(snap gps.Snapshot) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- snap:
		default:
		}
	}
	b.last = snap
	b.haveLast = true
}

// Run publishes next() every interval until ctx is done.
func (b *Broadcaster) Run(ctx context.Context, interval time.Duration, next func() gps.Snapshot) {
	if interval <= 0 {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			b.Publish(next())
		}
	}
}
