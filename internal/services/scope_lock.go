package services

import "sync"

// scopeLocks hands out one mutex per user scope. Entries are dropped once no
// goroutine holds or waits for them.
type scopeLocks struct {
	mu    sync.Mutex
	locks map[string]*scopeLock
}

type scopeLock struct {
	mu   sync.Mutex
	refs int
}

func newScopeLocks() *scopeLocks {
	return &scopeLocks{locks: make(map[string]*scopeLock)}
}

// Lock blocks until scope is free and returns the matching unlock.
func (l *scopeLocks) Lock(scope string) func() {
	l.mu.Lock()
	entry, ok := l.locks[scope]
	if !ok {
		entry = &scopeLock{}
		l.locks[scope] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, scope)
		}
		l.mu.Unlock()
	}
}

// size returns the number of scopes currently tracked.
func (l *scopeLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
