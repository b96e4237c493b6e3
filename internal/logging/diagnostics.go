package logging

import (
	"sync"
	"time"

	"github.com/oriys/newtonfractal/internal/draw"
)

// DiagnosticsEntry stores one render's Stats for later inspection, e.g. by
// an operator debugging why a particular request looked the way it did.
type DiagnosticsEntry struct {
	RequestID string
	SessionID string
	Stats     draw.Stats
	Timestamp time.Time
	ExpiresAt time.Time
}

// DiagnosticsStore is a small in-process, TTL-bounded cache of recent
// render Stats keyed by request id. Unlike the teacher's output capture,
// this holds no state that needs to survive a restart — it exists purely
// to let an operator inspect the last few renders, so nothing is persisted
// to disk.
type DiagnosticsStore struct {
	mu         sync.RWMutex
	retention  time.Duration
	maxEntries int
	order      []string // request ids, oldest first
	entries    map[string]*DiagnosticsEntry
}

var globalDiagnostics *DiagnosticsStore

// InitDiagnosticsStore initializes the global diagnostics store.
func InitDiagnosticsStore(retention time.Duration, maxEntries int) {
	globalDiagnostics = &DiagnosticsStore{
		retention:  retention,
		maxEntries: maxEntries,
		entries:    make(map[string]*DiagnosticsEntry),
	}
	go globalDiagnostics.cleanupLoop()
}

// GetDiagnosticsStore returns the global diagnostics store.
func GetDiagnosticsStore() *DiagnosticsStore {
	return globalDiagnostics
}

// Store records a render's Stats for requestID.
func (s *DiagnosticsStore) Store(sessionID, requestID string, stats draw.Stats) {
	if s == nil {
		return
	}

	entry := &DiagnosticsEntry{
		RequestID: requestID,
		SessionID: sessionID,
		Stats:     stats,
		Timestamp: time.Now(),
		ExpiresAt: time.Now().Add(s.retention),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[requestID]; !exists {
		s.order = append(s.order, requestID)
	}
	s.entries[requestID] = entry

	for s.maxEntries > 0 && len(s.order) > s.maxEntries {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.entries, oldest)
	}
}

// Get retrieves the diagnostics entry for requestID, if still live.
func (s *DiagnosticsStore) Get(requestID string) (*DiagnosticsEntry, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[requestID]
	if !ok || time.Now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry, true
}

// Recent returns up to limit of the most recently stored entries, newest
// first.
func (s *DiagnosticsStore) Recent(limit int) []*DiagnosticsEntry {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	var results []*DiagnosticsEntry
	for i := len(s.order) - 1; i >= 0; i-- {
		entry := s.entries[s.order[i]]
		if entry == nil || now.After(entry.ExpiresAt) {
			continue
		}
		results = append(results, entry)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results
}

func (s *DiagnosticsStore) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		s.cleanup()
	}
}

func (s *DiagnosticsStore) cleanup() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.order[:0]
	for _, id := range s.order {
		entry := s.entries[id]
		if entry == nil || now.After(entry.ExpiresAt) {
			delete(s.entries, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
}
