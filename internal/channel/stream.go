package channel

import (
	"context"
	"sync"

	"github.com/tidwall/gjson"
)

// ResponseStream is the inbound half of a connection. It has exactly one
// consumer.
type ResponseStream interface {
	// Take blocks until a message is available. ok is false once the stream
	// is done and every queued message has been taken.
	Take() (msg gjson.Result, ok bool)

	// MarkDrained reports that the last taken message has been fully handled.
	MarkDrained()

	// Put enqueues a locally built message behind everything already queued.
	Put(msg gjson.Result)

	// Finish marks the stream done. Messages already queued are still
	// delivered.
	Finish()

	// WaitForEmpty blocks until nothing is queued and the last taken message
	// has been marked drained.
	WaitForEmpty(ctx context.Context) error
}

// Queue is an in-memory ResponseStream.
type Queue struct {
	mu    sync.Mutex
	ready *sync.Cond
	items []gjson.Result

	// busy is set between Take and MarkDrained
	busy bool
	done bool

	// changed is closed and replaced whenever the queue becomes idle or done
	changed chan struct{}
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	q := &Queue{changed: make(chan struct{})}
	q.ready = sync.NewCond(&q.mu)
	return q
}

// Take implements ResponseStream.
func (q *Queue) Take() (gjson.Result, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.done {
		q.ready.Wait()
	}
	if len(q.items) == 0 {
		return gjson.Result{}, false
	}

	msg := q.items[0]
	q.items[0] = gjson.Result{}
	q.items = q.items[1:]
	q.busy = true
	return msg, true
}

// MarkDrained implements ResponseStream.
func (q *Queue) MarkDrained() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.busy = false
	if len(q.items) == 0 {
		q.broadcastLocked()
	}
}

// Put implements ResponseStream. Messages put after Finish are dropped.
func (q *Queue) Put(msg gjson.Result) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.done {
		return
	}
	q.items = append(q.items, msg)
	q.ready.Signal()
}

// Finish implements ResponseStream.
func (q *Queue) Finish() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.done {
		return
	}
	q.done = true
	q.ready.Broadcast()
	q.broadcastLocked()
}

// Done reports whether Finish has been called.
func (q *Queue) Done() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.done
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// WaitForEmpty implements ResponseStream.
func (q *Queue) WaitForEmpty(ctx context.Context) error {
	for {
		q.mu.Lock()
		if len(q.items) == 0 && !q.busy {
			q.mu.Unlock()
			return nil
		}
		changed := q.changed
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

func (q *Queue) broadcastLocked() {
	close(q.changed)
	q.changed = make(chan struct{})
}
