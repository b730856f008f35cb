package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualEvery(t *testing.T) {
	m := NewManual()
	ticks := 0
	h := m.Every(3*time.Second, func() { ticks++ })

	m.Advance(2 * time.Second)
	assert.Equal(t, 0, ticks)

	m.Advance(1 * time.Second)
	assert.Equal(t, 1, ticks)

	m.Advance(30 * time.Second)
	assert.Equal(t, 11, ticks, "ticks must not be skipped or coalesced")

	assert.True(t, h.Stop())
	assert.False(t, h.Stop(), "second stop is a no-op")
	m.Advance(time.Minute)
	assert.Equal(t, 11, ticks)
	assert.Equal(t, 0, m.Pending())
}

func TestManualAfter(t *testing.T) {
	m := NewManual()
	fired := 0
	m.After(20*time.Second, func() { fired++ })

	m.Advance(19 * time.Second)
	assert.Equal(t, 0, fired)
	m.Advance(time.Second)
	assert.Equal(t, 1, fired)
	m.Advance(time.Hour)
	assert.Equal(t, 1, fired, "one-shot fires once")
}

func TestManualStopBeforeFire(t *testing.T) {
	m := NewManual()
	fired := false
	h := m.After(time.Second, func() { fired = true })
	require.True(t, h.Stop())

	m.Advance(time.Minute)
	assert.False(t, fired)
}

func TestManualOrdering(t *testing.T) {
	m := NewManual()
	var order []string
	m.Every(3*time.Second, func() { order = append(order, "tick") })
	m.After(5*time.Second, func() { order = append(order, "wake") })

	m.Advance(9 * time.Second)
	assert.Equal(t, []string{"tick", "wake", "tick", "tick"}, order)
	assert.Equal(t, 9*time.Second, m.Elapsed())
}

func TestManualCallbackCanCancelOther(t *testing.T) {
	m := NewManual()
	ticks := 0
	var ticker Handle
	ticker = m.Every(time.Second, func() { ticks++ })
	m.After(2500*time.Millisecond, func() { ticker.Stop() })

	m.Advance(10 * time.Second)
	assert.Equal(t, 2, ticks)
}

func TestManualCallbackCanArmTimer(t *testing.T) {
	m := NewManual()
	fired := 0
	m.After(time.Second, func() {
		m.After(time.Second, func() { fired++ })
	})

	m.Advance(5 * time.Second)
	assert.Equal(t, 1, fired)
}

func TestStopNil(t *testing.T) {
	assert.False(t, Stop(nil))
}

// chanPost delivers callbacks to a channel the test drains on its own goroutine,
// standing in for the UI update loop.
func chanPost(ch chan func()) func(func()) {
	return func(fn func()) { ch <- fn }
}

func TestLoopAfter(t *testing.T) {
	ch := make(chan func(), 8)
	l := NewLoop(chanPost(ch))
	fired := 0
	h := l.After(10*time.Millisecond, func() { fired++ })

	select {
	case fn := <-ch:
		fn()
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
	assert.Equal(t, 1, fired)
	assert.False(t, h.Stop(), "fired one-shot is no longer active")
}

func TestLoopStaleCallbackIsDropped(t *testing.T) {
	ch := make(chan func(), 8)
	l := NewLoop(chanPost(ch))
	fired := false
	h := l.After(5*time.Millisecond, func() { fired = true })

	var queued func()
	select {
	case queued = <-ch:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}

	// The timer already fired but the owner stopped it before the loop
	// got around to running the callback.
	assert.True(t, h.Stop())
	queued()
	assert.False(t, fired)
}

func TestLoopEvery(t *testing.T) {
	ch := make(chan func(), 16)
	l := NewLoop(chanPost(ch))
	ticks := 0
	h := l.Every(5*time.Millisecond, func() { ticks++ })

	for ticks < 3 {
		select {
		case fn := <-ch:
			fn()
		case <-time.After(time.Second):
			t.Fatal("ticker stalled")
		}
	}
	require.True(t, h.Stop())

	// Anything already queued must be a no-op now.
	for {
		select {
		case fn := <-ch:
			fn()
		default:
			assert.Equal(t, 3, ticks)
			return
		}
	}
}

func TestLoopEveryKeepsTicksWhilePostBlocks(t *testing.T) {
	gate := make(chan struct{})
	var posted atomic.Int32
	l := NewLoop(func(func()) {
		<-gate
		posted.Add(1)
	})

	h := l.Every(5*time.Millisecond, func() {})
	time.Sleep(100 * time.Millisecond)
	close(gate)
	time.Sleep(30 * time.Millisecond)
	h.Stop()

	// About 26 firings are due; a ticker that drops ticks while blocked
	// manages only a handful.
	assert.GreaterOrEqual(t, int(posted.Load()), 15)
}

func TestQueueRunsPostedCallbacks(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- q.Run(ctx) }()

	got := make(chan int, 3)
	for i := 0; i < 3; i++ {
		i := i
		q.Post(func() { got <- i })
	}
	for want := 0; want < 3; want++ {
		select {
		case v := <-got:
			assert.Equal(t, want, v)
		case <-time.After(time.Second):
			t.Fatal("callback never ran")
		}
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	// Posting after Run returned must not block.
	for i := 0; i < 32; i++ {
		q.Post(func() {})
	}
}

func TestLoopOnQueue(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	l := NewLoop(q.Post)
	fired := make(chan struct{})
	l.After(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired through the queue")
	}
}
