package workerpool

import "sync"

// TaskGroup is a single-use fan-out/join barrier over a Pool: Add queues a
// task and tracks it as outstanding, WaitUntilDone blocks until every
// task added so far has finished. One draw invocation creates one
// TaskGroup per strategy call.
type TaskGroup struct {
	pool *Pool

	mu          sync.Mutex
	cond        *sync.Cond
	outstanding int
}

// NewTaskGroup returns a TaskGroup bound to pool.
func NewTaskGroup(pool *Pool) *TaskGroup {
	g := &TaskGroup{pool: pool}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// Add queues f on the pool and tracks it until it finishes.
func (g *TaskGroup) Add(f Task) {
	g.mu.Lock()
	g.outstanding++
	g.mu.Unlock()

	g.pool.Queue(func() {
		f()
		g.mu.Lock()
		g.outstanding--
		notify := g.outstanding == 0
		g.mu.Unlock()
		if notify {
			g.cond.Broadcast()
		}
	})
}

// WaitUntilDone blocks until every task added so far has completed.
func (g *TaskGroup) WaitUntilDone() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for g.outstanding > 0 {
		g.cond.Wait()
	}
}
