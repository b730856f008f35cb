package schedule

import "time"

// Manual is a virtual-time scheduler for tests. Nothing fires until Advance
// is called; callbacks then run synchronously on the caller's goroutine in
// due-time order. It is not safe for concurrent use.
type Manual struct {
	elapsed time.Duration
	seq     int
	timers  []*manualTimer
}

type manualTimer struct {
	due     time.Duration
	period  time.Duration
	seq     int
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// NewManual returns a Manual scheduler at virtual time zero.
func NewManual() *Manual {
	return &Manual{}
}

// Every arms a periodic timer. A non-positive period yields a stopped handle.
func (m *Manual) Every(d time.Duration, fn func()) Handle {
	return m.add(d, d, fn)
}

// After arms a one-shot timer.
func (m *Manual) After(d time.Duration, fn func()) Handle {
	return m.add(d, 0, fn)
}

func (m *Manual) add(d, period time.Duration, fn func()) Handle {
	m.seq++
	t := &manualTimer{due: m.elapsed + d, period: period, seq: m.seq, fn: fn}
	if d <= 0 && period != 0 {
		t.stopped = true
		return t
	}
	m.timers = append(m.timers, t)
	return t
}

// Elapsed returns the virtual time since the scheduler was created.
func (m *Manual) Elapsed() time.Duration {
	return m.elapsed
}

// Advance moves virtual time forward by d, firing every timer that comes due.
func (m *Manual) Advance(d time.Duration) {
	target := m.elapsed + d
	for {
		next := m.next(target)
		if next == nil {
			break
		}
		m.elapsed = next.due
		if next.period > 0 {
			next.due += next.period
		} else {
			next.stopped = true
		}
		next.fn()
	}
	m.elapsed = target
	m.prune()
}

// Pending counts timers that are still armed.
func (m *Manual) Pending() int {
	n := 0
	for _, t := range m.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

func (m *Manual) next(limit time.Duration) *manualTimer {
	var best *manualTimer
	for _, t := range m.timers {
		if t.stopped || t.due > limit {
			continue
		}
		if best == nil || t.due < best.due || (t.due == best.due && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (m *Manual) prune() {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	m.timers = live
}
