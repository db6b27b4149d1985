package gps

import (
	"sync"
	"time"
)

// Received is one raw line and when it was read.
type Received struct {
	At   time.Time `json:"at"`
	Line string    `json:"line"`
}

// receivedRing keeps the newest lines in a fixed ring. Lines longer than
// maxLen are cut.
type receivedRing struct {
	mu     sync.Mutex
	maxLen int
	buf    []Received
	next   int
	full   bool
}

func newReceivedRing(size, maxLen int) *receivedRing {
	if size < 0 {
		size = 0
	}
	if maxLen <= 0 {
		maxLen = 256
	}
	return &receivedRing{maxLen: maxLen, buf: make([]Received, size)}
}

func (r *receivedRing) add(at time.Time, line string) {
	if r == nil || len(r.buf) == 0 {
		return
	}
	if len(line) > r.maxLen {
		line = line[:r.maxLen]
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = Received{At: at, Line: line}
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
}

// list returns the kept lines, oldest first.
func (r *receivedRing) list() []Received {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return append([]Received(nil), r.buf[:r.next]...)
	}
	out := make([]Received, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	return append(out, r.buf[:r.next]...)
}
