package artifact

import "sync"

// InMemoryStore is a trivial in-process ReportStore implementation useful
// for tests, examples and single-process prototypes. It keeps all reports in
// a map guarded by an RWMutex. Data is copied on save / retrieval to avoid
// accidental external mutation of internal buffers.
//
// Layout: taskID -> raw report bytes
//
// This implementation is intentionally minimal; it does not enforce retention
// limits, size quotas, or eviction. For production, prefer a durable
// implementation that can scale and survive process restarts.
type InMemoryStore struct {
	mu      sync.RWMutex
	reports map[string][]byte
}

// NewInMemoryStore returns an empty in-memory report store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{reports: make(map[string][]byte)}
}

// Save stores (or overwrites) the report bytes for the given task id.
// The input slice is copied before storage.
func (a *InMemoryStore) Save(taskID string, report []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	cp := make([]byte, len(report))
	copy(cp, report)
	a.reports[taskID] = cp
	return nil
}

// Get returns a copy of the stored report bytes or ErrNotFound.
func (a *InMemoryStore) Get(taskID string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	data, ok := a.reports[taskID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// List returns the task ids that have a stored report. The slice is a
// snapshot and safe for caller mutation.
func (a *InMemoryStore) List() ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ids := make([]string, 0, len(a.reports))
	for id := range a.reports {
		ids = append(ids, id)
	}
	return ids, nil
}

// Delete removes the report if present or returns ErrNotFound.
func (a *InMemoryStore) Delete(taskID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.reports[taskID]; !ok {
		return ErrNotFound
	}
	delete(a.reports, taskID)
	return nil
}
