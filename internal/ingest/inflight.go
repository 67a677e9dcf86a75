package ingest

import "sync"

// inflight tracks which companies have a cycle running. Overlapping
// triggers are skipped, never queued, so a slow source cannot build a
// backlog of redundant work.
type inflight struct {
	mu      sync.Mutex
	running map[string]struct{}
}

func newInflight() *inflight {
	return &inflight{running: make(map[string]struct{})}
}

// tryAcquire marks the company as running. It returns false when a
// cycle already holds the slot.
func (f *inflight) tryAcquire(companyID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.running[companyID]; busy {
		return false
	}
	f.running[companyID] = struct{}{}
	return true
}

func (f *inflight) release(companyID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.running, companyID)
}
