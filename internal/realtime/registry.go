package realtime

import (
	"sync"
)

// Handle is one live realtime connection belonging to a user.
type Handle interface {
	// Enqueue offers a payload to the connection without blocking.
	// It returns false when the connection is closed or its buffer is
	// full; the caller decides whether that drops the connection.
	Enqueue(payload []byte) bool

	// Close tears the connection down. Idempotent.
	Close()
}

// Registry is the process-wide presence table: user id to the set of live
// connections. A user may hold several simultaneous connections
// (multi-tab, multi-device) and all of them receive fan-out. Entries are
// in-memory only and lost on restart.
//
// The registry is the one shared mutable resource touched by every
// connect, disconnect and dispatch; all access goes through the mutex.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]map[Handle]struct{}
	owner  map[Handle]string
}

// NewRegistry creates an empty presence registry. Construct once per
// process and inject it; there is no package-level instance.
func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]map[Handle]struct{}),
		owner:  make(map[Handle]string),
	}
}

// Register adds a connection for a user.
func (r *Registry) Register(userID string, h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byUser[userID] == nil {
		r.byUser[userID] = make(map[Handle]struct{})
	}
	r.byUser[userID][h] = struct{}{}
	r.owner[h] = userID
}

// Unregister removes a connection from whatever user it belonged to.
// No-op if the handle was already removed.
func (r *Registry) Unregister(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.owner[h]
	if !ok {
		return
	}

	delete(r.owner, h)
	delete(r.byUser[userID], h)
	if len(r.byUser[userID]) == 0 {
		delete(r.byUser, userID)
	}
}

// ConnectionsFor returns a snapshot of the user's live connections,
// possibly empty.
func (r *Registry) ConnectionsFor(userID string) []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.byUser[userID]
	if len(set) == 0 {
		return nil
	}

	handles := make([]Handle, 0, len(set))
	for h := range set {
		handles = append(handles, h)
	}
	return handles
}

// Online reports whether the user has at least one live connection.
func (r *Registry) Online(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// Drain closes every live connection. Used on shutdown.
func (r *Registry) Drain() {
	r.mu.Lock()
	handles := make([]Handle, 0, len(r.owner))
	for h := range r.owner {
		handles = append(handles, h)
	}
	r.mu.Unlock()

	for _, h := range handles {
		h.Close()
	}
}
