package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"ResearchBoard/internal/logger"
)

// DefaultSaveTimeout bounds a single background save.
const DefaultSaveTimeout = 10 * time.Second

// Saver writes snapshots in the background. Submit never blocks; when saves queue up
// only the newest snapshot is written. Failures are logged and otherwise ignored.
type Saver struct {
	store   Store
	timeout time.Duration

	mu     sync.Mutex
	next   *Snapshot
	closed bool

	wake chan struct{}
	done chan struct{}

	saved  atomic.Int64
	failed atomic.Int64
}

// NewSaver starts the background writer for store.
func NewSaver(store Store) *Saver {
	s := &Saver{
		store:   store,
		timeout: DefaultSaveTimeout,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

// Submit queues snap, replacing any snapshot still waiting to be written.
func (s *Saver) Submit(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.next = &snap
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Saver) run() {
	defer close(s.done)
	for range s.wake {
		s.writePending()
	}
	s.writePending()
}

func (s *Saver) writePending() {
	s.mu.Lock()
	snap := s.next
	s.next = nil
	s.mu.Unlock()
	if snap == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.store.Save(ctx, *snap); err != nil {
		s.failed.Add(1)
		logger.Error("[STORE] save failed", err, map[string]interface{}{"items": len(snap.Items)})
		return
	}
	s.saved.Add(1)
	logger.Debug("[STORE] snapshot saved", map[string]interface{}{"items": len(snap.Items)})
}

// Saved and Failed count completed background writes.
func (s *Saver) Saved() int64  { return s.saved.Load() }
func (s *Saver) Failed() int64 { return s.failed.Load() }

// Close writes whatever is pending and stops the writer. The underlying store stays open.
func (s *Saver) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.wake)
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
