package ingest

import "sync"

// keyLock serializes work per media identifier. Mutexes are created on
// first use and retained for the life of the process; the key space is
// bounded by the library size.
type keyLock struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func newKeyLock() *keyLock {
	return &keyLock{m: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for key and returns its release func.
func (l *keyLock) lock(key string) func() {
	l.mu.Lock()
	km, ok := l.m[key]
	if !ok {
		km = &sync.Mutex{}
		l.m[key] = km
	}
	l.mu.Unlock()

	km.Lock()
	return km.Unlock
}
