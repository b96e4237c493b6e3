package logging

import (
	"testing"
	"time"

	"github.com/oriys/newtonfractal/internal/draw"
)

func TestDiagnosticsStoreStoresAndRetrieves(t *testing.T) {
	s := &DiagnosticsStore{retention: time.Hour, maxEntries: 10, entries: make(map[string]*DiagnosticsEntry)}

	s.Store("session-1", "req-1", draw.Stats{TotalIters: 42})

	entry, ok := s.Get("req-1")
	if !ok {
		t.Fatal("expected req-1 to be present")
	}
	if entry.Stats.TotalIters != 42 {
		t.Fatalf("TotalIters = %d, want 42", entry.Stats.TotalIters)
	}
}

func TestDiagnosticsStoreExpiresEntries(t *testing.T) {
	s := &DiagnosticsStore{retention: -time.Second, maxEntries: 10, entries: make(map[string]*DiagnosticsEntry)}

	s.Store("session-1", "req-1", draw.Stats{})

	if _, ok := s.Get("req-1"); ok {
		t.Fatal("expected an already-expired entry to be rejected by Get")
	}
}

func TestDiagnosticsStoreCapsEntryCount(t *testing.T) {
	s := &DiagnosticsStore{retention: time.Hour, maxEntries: 2, entries: make(map[string]*DiagnosticsEntry)}

	s.Store("s", "req-1", draw.Stats{})
	s.Store("s", "req-2", draw.Stats{})
	s.Store("s", "req-3", draw.Stats{})

	if _, ok := s.Get("req-1"); ok {
		t.Fatal("expected the oldest entry to be evicted once maxEntries was exceeded")
	}
	if _, ok := s.Get("req-3"); !ok {
		t.Fatal("expected the newest entry to still be present")
	}
}

func TestDiagnosticsStoreRecentOrdersNewestFirst(t *testing.T) {
	s := &DiagnosticsStore{retention: time.Hour, maxEntries: 10, entries: make(map[string]*DiagnosticsEntry)}

	s.Store("s", "req-1", draw.Stats{})
	s.Store("s", "req-2", draw.Stats{})

	recent := s.Recent(0)
	if len(recent) != 2 {
		t.Fatalf("len(recent) = %d, want 2", len(recent))
	}
	if recent[0].RequestID != "req-2" {
		t.Fatalf("recent[0].RequestID = %q, want req-2 (newest first)", recent[0].RequestID)
	}
}
