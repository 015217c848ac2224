package session

import (
	"sync"
	"time"

	"github.com/examstack/examhall-backend/internal/model"
)

// Entry holds liveness metadata for one active connection.
type Entry struct {
	ConnectedAt   time.Time
	LastHeartbeat time.Time
}

// Registry tracks live connections per attempt for diagnostics and the
// health endpoint. It is never consulted for grading or timing: those key
// on the attempt alone, so a stale or replaced registry entry is harmless.
type Registry struct {
	mu      sync.Mutex
	entries map[model.AttemptKey]Entry
	now     func() time.Time
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[model.AttemptKey]Entry),
		now:     time.Now,
	}
}

// TryAdd registers a connection for the attempt, reporting whether the key
// was new. A concurrent registration for the same key is not an error; the
// last writer's metadata wins.
func (r *Registry) TryAdd(key model.AttemptKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, existed := r.entries[key]
	now := r.now()
	r.entries[key] = Entry{ConnectedAt: now, LastHeartbeat: now}
	return !existed
}

// TryGet returns the entry for the attempt, if registered.
func (r *Registry) TryGet(key model.AttemptKey) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[key]
	return e, ok
}

// UpdateHeartbeat records a fresh heartbeat for the attempt. Unknown keys
// are ignored.
func (r *Registry) UpdateHeartbeat(key model.AttemptKey) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[key]; ok {
		e.LastHeartbeat = r.now()
		r.entries[key] = e
	}
}

// Remove deregisters the attempt. Removing an absent key is a no-op.
func (r *Registry) Remove(key model.AttemptKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
