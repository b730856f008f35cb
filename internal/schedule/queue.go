package schedule

import "context"

// Queue is the logical thread when there is no UI loop: posted callbacks run
// one at a time on the goroutine that calls Run.
type Queue struct {
	ch   chan func()
	done chan struct{}
}

func NewQueue() *Queue {
	return &Queue{ch: make(chan func(), 16), done: make(chan struct{})}
}

// Post hands fn to Run. After Run has returned, fn is dropped.
func (q *Queue) Post(fn func()) {
	select {
	case q.ch <- fn:
	case <-q.done:
	}
}

// Run executes posted callbacks until ctx is done.
func (q *Queue) Run(ctx context.Context) error {
	defer close(q.done)
	for {
		select {
		case fn := <-q.ch:
			fn()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
