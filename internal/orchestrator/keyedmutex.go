package orchestrator

import "sync"

// keyedMutex serializes work per key. Mutations to one document (ingest,
// re-ingest, delete, reconciliation) take its lock; operations on
// different documents never contend. Entries are reference counted and
// removed when the last holder releases, so the map does not grow with
// corpus size.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	ch   chan struct{}
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

// lock blocks until the key's lock is held and returns the release func.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{ch: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.ch <- struct{}{}

	return func() {
		<-l.ch
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
