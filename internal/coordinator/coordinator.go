// Package coordinator provides a pool-backed coordinator with two
// independently awaitable task classes, computation and layout. The
// asynchronous handler uses it instead of gluing two workerpool.TaskGroups
// together by hand, since it needs to queue and await each class without
// one blocking the other's bookkeeping.
package coordinator

import (
	"sync"

	"github.com/oriys/newtonfractal/internal/workerpool"
)

type class struct {
	mu          sync.Mutex
	cond        *sync.Cond
	outstanding int
}

func newClass() *class {
	c := &class{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

func (c *class) queue(pool *workerpool.Pool, f func()) {
	c.mu.Lock()
	c.outstanding++
	c.mu.Unlock()

	pool.Queue(func() {
		f()
		c.mu.Lock()
		c.outstanding--
		notify := c.outstanding == 0
		c.mu.Unlock()
		if notify {
			c.cond.Broadcast()
		}
	})
}

func (c *class) waitUntilDone() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.outstanding > 0 {
		c.cond.Wait()
	}
}

// Coordinator wraps one workerpool.Pool with two independent task classes.
type Coordinator struct {
	pool        *workerpool.Pool
	computation *class
	layout      *class
}

// New returns a Coordinator backed by a freshly created pool of the given
// worker count.
func New(workers int) *Coordinator {
	return NewWithPool(workerpool.New(workers))
}

// NewWithPool returns a Coordinator that queues both of its task classes
// onto an existing, possibly shared, pool instead of creating its own.
func NewWithPool(pool *workerpool.Pool) *Coordinator {
	return &Coordinator{
		pool:        pool,
		computation: newClass(),
		layout:      newClass(),
	}
}

// Pool returns the underlying pool, for callers that also want to submit
// plain (unclassed) work, e.g. the draw orchestrator's own task groups.
func (c *Coordinator) Pool() *workerpool.Pool { return c.pool }

// QueueComputation submits f as outstanding computation work.
func (c *Coordinator) QueueComputation(f func()) { c.computation.queue(c.pool, f) }

// QueueLayout submits f as outstanding layout work.
func (c *Coordinator) QueueLayout(f func()) { c.layout.queue(c.pool, f) }

// WaitUntilComputationDone blocks until every computation task queued so
// far has completed.
func (c *Coordinator) WaitUntilComputationDone() { c.computation.waitUntilDone() }

// WaitUntilLayoutDone blocks until every layout task queued so far has
// completed.
func (c *Coordinator) WaitUntilLayoutDone() { c.layout.waitUntilDone() }

// Stop shuts down the underlying pool.
func (c *Coordinator) Stop() { c.pool.Stop() }
