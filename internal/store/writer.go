package store

import (
	"context"
	"sync"
	"time"

	"pokepet/internal/pet"
)

const writeTimeout = 5 * time.Second

type writeOp struct {
	rec   Record
	clear bool
}

// Writer performs saves and clears on a background goroutine so the caller
// never waits on I/O. Only the latest request is kept: a save that has not
// started yet is replaced by the next one. Failures are logged and dropped.
type Writer struct {
	store *Store

	mu        sync.Mutex
	pending   *writeOp
	lastSaved time.Time
	closed    bool

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
}

// NewWriter starts the background goroutine. Call Close to flush and stop it.
func NewWriter(s *Store) *Writer {
	w := &Writer{
		store: s,
		wake:  make(chan struct{}, 1),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go w.run()
	return w
}

// Save queues a save of the given state, stamped now.
func (w *Writer) Save(p pet.Pet, needs pet.Needs, mode pet.Mode) {
	rec, err := NewRecord(p, needs, mode, pet.TimeNow())
	if err != nil {
		w.store.log.Debug("not saving", "err", err)
		return
	}
	w.submit(&writeOp{rec: rec})
}

// Clear queues removal of the saved record.
func (w *Writer) Clear() {
	w.submit(&writeOp{clear: true})
}

// LastSaved is when the most recent successful save was stamped.
func (w *Writer) LastSaved() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSaved
}

// Close writes whatever is pending and stops the goroutine.
func (w *Writer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	close(w.quit)
	<-w.done
}

func (w *Writer) submit(op *writeOp) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.pending = op
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.flush()
		case <-w.quit:
			w.flush()
			return
		}
	}
}

func (w *Writer) flush() {
	w.mu.Lock()
	op := w.pending
	w.pending = nil
	w.mu.Unlock()
	if op == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if op.clear {
		if err := w.store.Clear(ctx); err != nil {
			w.store.log.Warn("error clearing state", "err", err)
		}
		return
	}
	if err := w.store.Put(ctx, op.rec); err != nil {
		w.store.log.Warn("error saving state", "err", err)
		return
	}
	w.mu.Lock()
	if op.rec.SavedAt().After(w.lastSaved) {
		w.lastSaved = op.rec.SavedAt()
	}
	w.mu.Unlock()
}
