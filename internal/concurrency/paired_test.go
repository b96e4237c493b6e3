package concurrency

import (
	"testing"
	"time"
)

func TestPairedSlotsWakesOnEitherAdvancing(t *testing.T) {
	cases := []struct {
		name    string
		advance func(p *PairedSlots[string, int, int])
	}{
		{"first advances", func(p *PairedSlots[string, int, int]) { p.SetFirst("p2", 2) }},
		{"second advances", func(p *PairedSlots[string, int, int]) { p.SetSecond(200, 2) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPairedSlots[string, int, int]()
			p.SetFirst("p1", 1)
			p.SetSecond(100, 1)

			done := make(chan PairResult[string, int, int], 1)
			go func() {
				done <- p.GetBothWithAtLeastOneAboveVersion(1, 1)
			}()

			select {
			case <-done:
				t.Fatal("woke before either side advanced")
			case <-time.After(20 * time.Millisecond):
			}

			tc.advance(p)

			select {
			case r := <-done:
				if r.Dead {
					t.Fatal("got dead result")
				}
			case <-time.After(time.Second):
				t.Fatal("never woke after advance")
			}
		})
	}
}

func TestPairedSlotsRequiresBothPresent(t *testing.T) {
	p := NewPairedSlots[string, int, int]()
	p.SetFirst("p1", 5) // second side never set

	done := make(chan PairResult[string, int, int], 1)
	go func() {
		done <- p.GetBothWithAtLeastOneAboveVersion(0, 0)
	}()

	select {
	case <-done:
		t.Fatal("woke with only one side populated")
	case <-time.After(20 * time.Millisecond):
	}

	p.SetSecond(1, 1)

	select {
	case r := <-done:
		if r.First != "p1" || r.Second != 1 {
			t.Fatalf("got %+v", r)
		}
	case <-time.After(time.Second):
		t.Fatal("never woke once both sides present")
	}
}

func TestPairedSlotsKill(t *testing.T) {
	p := NewPairedSlots[string, int, int]()

	done := make(chan PairResult[string, int, int], 1)
	go func() {
		done <- p.GetBothWithAtLeastOneAboveVersion(0, 0)
	}()

	time.Sleep(10 * time.Millisecond)
	p.Kill()

	select {
	case r := <-done:
		if !r.Dead {
			t.Fatalf("got %+v, want dead", r)
		}
	case <-time.After(time.Second):
		t.Fatal("Kill did not wake waiter")
	}
}
