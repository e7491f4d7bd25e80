// Package async carries platform completions (anchor creation, hit-test
// subscription, model loading) back onto the frame loop.
//
// Runtimes call back on whatever goroutine they like. Callbacks built with
// Deliver only enqueue; the queued continuations run when the frame driver
// calls Queue.Drain at the start of a frame, so systems never see
// concurrent mutation of the scene graph.
package async

import "sync"

// Queue is a goroutine-safe FIFO of continuations.
type Queue struct {
	mu    sync.Mutex
	items []func()
	spare []func()
}

func NewQueue() *Queue {
	return &Queue{items: make([]func(), 0, 16)}
}

// Post enqueues fn. Safe from any goroutine.
func (q *Queue) Post(fn func()) {
	q.mu.Lock()
	q.items = append(q.items, fn)
	q.mu.Unlock()
}

// Drain runs every continuation queued before the call and returns how many
// ran. Continuations posted while draining wait for the next Drain.
func (q *Queue) Drain() int {
	q.mu.Lock()
	batch := q.items
	q.items = q.spare[:0]
	q.mu.Unlock()

	for i, fn := range batch {
		fn()
		batch[i] = nil
	}

	q.mu.Lock()
	q.spare = batch[:0]
	q.mu.Unlock()
	return len(batch)
}

// Len returns the number of queued continuations.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Deliver wraps fn so that invoking the result from any goroutine schedules
// fn on q instead of running it.
func Deliver[R any](q *Queue, fn func(R, error)) func(R, error) {
	return func(r R, err error) {
		q.Post(func() { fn(r, err) })
	}
}

// ID names one outstanding task.
type ID uint64

// Pending is the set of outstanding tasks owned by one system, keyed by ID.
// Loop goroutine only.
type Pending[T any] struct {
	next  ID
	tasks map[ID]T
}

func NewPending[T any]() *Pending[T] {
	return &Pending[T]{tasks: make(map[ID]T, 8)}
}

// Start records a new task and returns its ID.
func (p *Pending[T]) Start(v T) ID {
	p.next++
	p.tasks[p.next] = v
	return p.next
}

// Resolve removes and returns the task. The second result is false when
// the task was already resolved or dropped.
func (p *Pending[T]) Resolve(id ID) (T, bool) {
	v, ok := p.tasks[id]
	if ok {
		delete(p.tasks, id)
	}
	return v, ok
}

// Drop forgets every outstanding task. Their completions will find nothing
// to resolve.
func (p *Pending[T]) Drop() {
	clear(p.tasks)
}

func (p *Pending[T]) Len() int { return len(p.tasks) }
