package handlers

import (
	"sync"
	"sync/atomic"

	"github.com/oriys/newtonfractal/internal/metrics"
)

// activeGuards counts sessionGuards (across every handler kind) that have
// seen at least one session. Since each handler kind tracks exactly one
// live session at a time, this is also the active-sessions gauge.
var activeGuards atomic.Int64

// sessionGuard tracks the most recent non-empty session_id a handler has
// seen and reports, once per change, that a full kill/join/reset/restart
// cycle is due. A fresh guard's zero value never triggers a rebuild for the
// first session it sees — there is nothing yet to tear down.
type sessionGuard struct {
	mu      sync.Mutex
	current string
	seen    bool
}

// checkAndSwap reports whether sessionID is a change from the previously
// seen session, updating the tracked value. Callers perform their rebuild
// exactly when this returns true.
func (g *sessionGuard) checkAndSwap(sessionID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if sessionID == "" {
		return false
	}
	changed := g.seen && sessionID != g.current
	if !g.seen {
		metrics.Global().RecordSessionStarted()
		metrics.SetActiveSessions(int(activeGuards.Add(1)))
	} else if changed {
		metrics.Global().RecordSessionRebuilt()
	}
	g.current = sessionID
	g.seen = true
	return changed
}
