package coordinator

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestCoordinatorClassesAreIndependent(t *testing.T) {
	c := New(4)
	defer c.Stop()

	block := make(chan struct{})
	var compRan int32
	c.QueueComputation(func() {
		<-block
		atomic.StoreInt32(&compRan, 1)
	})

	var layoutRan int32
	c.QueueLayout(func() {
		atomic.StoreInt32(&layoutRan, 1)
	})

	done := make(chan struct{})
	go func() {
		c.WaitUntilLayoutDone()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("layout wait blocked on outstanding computation work")
	}
	if atomic.LoadInt32(&layoutRan) != 1 {
		t.Fatal("layout task did not run")
	}

	close(block)
	c.WaitUntilComputationDone()
	if atomic.LoadInt32(&compRan) != 1 {
		t.Fatal("computation task did not run")
	}
}
