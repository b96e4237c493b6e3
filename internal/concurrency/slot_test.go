package concurrency

import (
	"testing"
	"time"
)

func TestSlotMonotonicity(t *testing.T) {
	s := NewSlot[string, int]()

	s.Set("v1", 5)
	s.Set("v0", 3) // stale, must be ignored

	got := s.Get()
	if got.State != StateAlive || got.Value != "v1" || got.Version != 5 {
		t.Fatalf("got %+v, want alive v1@5", got)
	}

	if changed := s.Set("v0-again", 3); changed {
		t.Fatalf("Set with stale version reported a change")
	}
}

func TestSlotGetAboveVersionUnblocksOnNewerSet(t *testing.T) {
	s := NewSlot[int, int]()
	s.Set(1, 1)

	done := make(chan MaybeResource[int, int], 1)
	go func() {
		done <- s.GetAboveVersion(1)
	}()

	select {
	case <-done:
		t.Fatal("GetAboveVersion returned before a newer version was set")
	case <-time.After(20 * time.Millisecond):
	}

	s.Set(2, 2)

	select {
	case r := <-done:
		if r.State != StateAlive || r.Value != 2 {
			t.Fatalf("got %+v, want alive 2", r)
		}
	case <-time.After(time.Second):
		t.Fatal("GetAboveVersion never woke after newer Set")
	}
}

func TestSlotKillWakesWaiters(t *testing.T) {
	s := NewSlot[int, int]()

	done := make(chan MaybeResource[int, int], 1)
	go func() {
		done <- s.GetAboveVersion(0)
	}()

	time.Sleep(10 * time.Millisecond)
	s.Kill()

	select {
	case r := <-done:
		if r.State != StateDead {
			t.Fatalf("got %+v, want dead", r)
		}
	case <-time.After(time.Second):
		t.Fatal("Kill did not wake blocked waiter")
	}

	// A waiter arriving after Kill must also observe dead immediately.
	if r := s.GetAboveVersion(0); r.State != StateDead {
		t.Fatalf("post-kill GetAboveVersion = %+v, want dead", r)
	}
}

func TestSlotResetAfterKill(t *testing.T) {
	s := NewSlot[int, int]()
	s.Set(1, 1)
	s.Kill()
	s.Reset()

	if got := s.Get(); got.State != StateEmpty {
		t.Fatalf("Get after Reset = %+v, want empty", got)
	}

	if !s.Set(5, 5) {
		t.Fatal("Set after Reset did not apply")
	}
}

func TestSlotGetAtVersionWithTimeoutSucceeds(t *testing.T) {
	s := NewSlot[int, int]()
	s.Set(1, 1)

	r := s.GetAtVersionWithTimeout(1, 50*time.Millisecond)
	if r.State != StateAlive || r.Value != 1 {
		t.Fatalf("got %+v, want alive 1", r)
	}
}

func TestSlotGetAtVersionWithTimeoutExpires(t *testing.T) {
	s := NewSlot[int, int]()

	start := time.Now()
	r := s.GetAtVersionWithTimeout(1, 30*time.Millisecond)
	elapsed := time.Since(start)

	if r.State != StateTimedOut {
		t.Fatalf("got %+v, want timed out", r)
	}
	if elapsed < 25*time.Millisecond {
		t.Fatalf("returned too early: %v", elapsed)
	}
}

func TestSlotGetAtVersionWithTimeoutCatchesUpBeforeDeadline(t *testing.T) {
	s := NewSlot[int, int]()

	done := make(chan MaybeResource[int, int], 1)
	go func() {
		done <- s.GetAtVersionWithTimeout(1, 500*time.Millisecond)
	}()

	time.Sleep(10 * time.Millisecond)
	s.Set(1, 1)

	select {
	case r := <-done:
		if r.State != StateAlive || r.Value != 1 {
			t.Fatalf("got %+v, want alive 1", r)
		}
	case <-time.After(time.Second):
		t.Fatal("did not wake on timely Set")
	}
}
