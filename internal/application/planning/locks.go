package planning

import (
	"sync"

	"github.com/google/uuid"
)

// keyedLock serializes work per aggregate id. Plan mutations use the
// non-blocking acquire so a concurrent mutation surfaces as a conflict;
// conversation appends use the blocking acquire because appends must
// never be dropped, only ordered.
type keyedLock struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
	refs  map[uuid.UUID]int
}

func newKeyedLock() *keyedLock {
	return &keyedLock{
		locks: make(map[uuid.UUID]*sync.Mutex),
		refs:  make(map[uuid.UUID]int),
	}
}

func (k *keyedLock) get(id uuid.UUID) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[id]
	if !ok {
		m = &sync.Mutex{}
		k.locks[id] = m
	}
	k.refs[id]++
	return m
}

func (k *keyedLock) put(id uuid.UUID) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.refs[id]--
	if k.refs[id] <= 0 {
		delete(k.locks, id)
		delete(k.refs, id)
	}
}

// Lock blocks until the id's lock is held. The returned func releases it.
func (k *keyedLock) Lock(id uuid.UUID) func() {
	m := k.get(id)
	m.Lock()
	return func() {
		m.Unlock()
		k.put(id)
	}
}

// TryLock acquires the id's lock without blocking. ok reports success;
// release must be called only when ok is true.
func (k *keyedLock) TryLock(id uuid.UUID) (release func(), ok bool) {
	m := k.get(id)
	if !m.TryLock() {
		k.put(id)
		return nil, false
	}
	return func() {
		m.Unlock()
		k.put(id)
	}, true
}
