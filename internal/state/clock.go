package state

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

var (
	siteID  = uuid.NewString()
	lamport uint64
)

// Clock is a logical clock. Item identities are drawn from it.
type Clock struct {
	counter int64
	mu      sync.Mutex
}

// Tick increments the clock and returns the new value
func (c *Clock) Tick() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counter++
	return c.counter
}

// Update moves the clock forward to at least timestamp.
func (c *Clock) Update(timestamp int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if timestamp > c.counter {
		c.counter = timestamp
	}
}

func (c *Clock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counter
}

// Revision identifies one committed board state across processes.
type Revision struct {
	Lamport uint64 `json:"lamport"`
	Site    string `json:"site"`
}

// Stamp issues the next local revision.
func Stamp() Revision {
	return Revision{Lamport: atomic.AddUint64(&lamport, 1), Site: siteID}
}

// Observe folds a remote lamport value into the local counter.
func Observe(remote uint64) {
	for {
		cur := atomic.LoadUint64(&lamport)
		if remote <= cur || atomic.CompareAndSwapUint64(&lamport, cur, remote) {
			return
		}
	}
}

func SiteID() string { return siteID }

// Newer orders revisions by lamport, breaking ties on site id.
func (r Revision) Newer(o Revision) bool {
	if r.Lamport != o.Lamport {
		return r.Lamport > o.Lamport
	}
	return r.Site > o.Site
}
