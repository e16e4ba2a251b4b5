package realtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandle struct {
	mu       sync.Mutex
	payloads [][]byte
	closed   bool
	full     bool
}

func (f *fakeHandle) Enqueue(payload []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.full {
		return false
	}
	f.payloads = append(f.payloads, payload)
	return true
}

func (f *fakeHandle) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	h := &fakeHandle{}

	r.Register("alice", h)

	handles := r.ConnectionsFor("alice")
	require.Len(t, handles, 1)
	assert.True(t, r.Online("alice"))
	assert.Empty(t, r.ConnectionsFor("bob"))
}

func TestRegistry_UnregisterRemovesHandle(t *testing.T) {
	r := NewRegistry()
	h := &fakeHandle{}

	r.Register("alice", h)
	r.Unregister(h)

	assert.Empty(t, r.ConnectionsFor("alice"))
	assert.False(t, r.Online("alice"))
}

func TestRegistry_UnregisterIsIdempotent(t *testing.T) {
	r := NewRegistry()
	h := &fakeHandle{}

	r.Register("alice", h)
	r.Unregister(h)
	r.Unregister(h)
	r.Unregister(&fakeHandle{}) // never registered

	assert.Empty(t, r.ConnectionsFor("alice"))
}

func TestRegistry_MultipleConnectionsPerUser(t *testing.T) {
	r := NewRegistry()
	h1 := &fakeHandle{}
	h2 := &fakeHandle{}

	r.Register("alice", h1)
	r.Register("alice", h2)

	handles := r.ConnectionsFor("alice")
	require.Len(t, handles, 2)

	// Dropping one tab leaves the other reachable
	r.Unregister(h1)
	handles = r.ConnectionsFor("alice")
	require.Len(t, handles, 1)
	assert.Same(t, h2, handles[0].(*fakeHandle))
}

func TestRegistry_DrainClosesEverything(t *testing.T) {
	r := NewRegistry()
	h1 := &fakeHandle{}
	h2 := &fakeHandle{}

	r.Register("alice", h1)
	r.Register("bob", h2)

	r.Drain()

	assert.True(t, h1.closed)
	assert.True(t, h2.closed)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := &fakeHandle{}
			r.Register("alice", h)
			r.ConnectionsFor("alice")
			r.Unregister(h)
		}()
	}
	wg.Wait()

	assert.Empty(t, r.ConnectionsFor("alice"))
}
