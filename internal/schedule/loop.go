package schedule

import (
	"sync"
	"sync/atomic"
	"time"
)

// Loop runs real timers but never calls back on the timer goroutine. Each
// firing is handed to Post, which must run the closure on the single thread
// that owns the engine (the Bubble Tea update loop). The stopped check runs
// there too, so a timer that fired just before Stop is discarded.
type Loop struct {
	Post func(func())
}

// NewLoop creates a Loop that delivers callbacks through post.
func NewLoop(post func(func())) *Loop {
	return &Loop{Post: post}
}

type loopHandle struct {
	stopped atomic.Bool
	ticker  *time.Ticker
	timer   *time.Timer
	done    chan struct{}

	mu   sync.Mutex
	due  int
	wake chan struct{}
}

func (h *loopHandle) Stop() bool {
	if h.stopped.Swap(true) {
		return false
	}
	if h.ticker != nil {
		h.ticker.Stop()
		close(h.done)
	}
	if h.timer != nil {
		h.timer.Stop()
	}
	return true
}

func (h *loopHandle) guard(fn func()) func() {
	return func() {
		if h.stopped.Load() {
			return
		}
		fn()
	}
}

// Every fires fn every d until stopped. Firings are counted apart from
// delivery, so a slow Post delays ticks but never drops them.
func (l *Loop) Every(d time.Duration, fn func()) Handle {
	h := &loopHandle{
		ticker: time.NewTicker(d),
		done:   make(chan struct{}),
		wake:   make(chan struct{}, 1),
	}
	go h.count()
	go h.deliver(l.Post, h.guard(fn))
	return h
}

func (h *loopHandle) count() {
	for {
		select {
		case <-h.ticker.C:
			h.mu.Lock()
			h.due++
			h.mu.Unlock()
			select {
			case h.wake <- struct{}{}:
			default:
			}
		case <-h.done:
			return
		}
	}
}

// deliver posts one callback per counted firing, in order.
func (h *loopHandle) deliver(post func(func()), run func()) {
	for {
		select {
		case <-h.wake:
		case <-h.done:
			return
		}
		for h.take() {
			select {
			case <-h.done:
				return
			default:
			}
			post(run)
		}
	}
}

func (h *loopHandle) take() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.due == 0 {
		return false
	}
	h.due--
	return true
}

// After fires fn once after d unless stopped first.
func (l *Loop) After(d time.Duration, fn func()) Handle {
	h := &loopHandle{}
	run := h.guard(func() {
		h.stopped.Store(true)
		fn()
	})
	h.timer = time.AfterFunc(d, func() { l.Post(run) })
	return h
}
