package service

import "sync"

// OwnerLocks hands out one mutex per owner. Entries are dropped once nobody holds or waits on them.
type OwnerLocks struct {
	mu    sync.Mutex
	locks map[int64]*ownerLock
}

type ownerLock struct {
	mu   sync.Mutex
	refs int
}

// NewOwnerLocks constructs an empty lock table.
func NewOwnerLocks() *OwnerLocks {
	return &OwnerLocks{locks: make(map[int64]*ownerLock)}
}

// Lock blocks until the owner's lock is held and returns the function that releases it.
func (l *OwnerLocks) Lock(ownerID int64) func() {
	l.mu.Lock()
	entry, ok := l.locks[ownerID]
	if !ok {
		entry = &ownerLock{}
		l.locks[ownerID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()
			l.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(l.locks, ownerID)
			}
			l.mu.Unlock()
		})
	}
}

func (l *OwnerLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
