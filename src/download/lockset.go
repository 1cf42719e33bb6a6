package download

import "sync"

// LockSet tracks run ids with a download in progress.
// It lives only in memory; a restart starts from an empty set.
type LockSet struct {
	mu  sync.Mutex
	ids map[int64]struct{}
}

// NewLockSet creates an empty lock set.
func NewLockSet() *LockSet {
	return &LockSet{ids: make(map[int64]struct{})}
}

// TryLock adds id and reports true, or reports false if id is already held.
// Check and add happen under one lock acquisition.
func (l *LockSet) TryLock(id int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, held := l.ids[id]; held {
		return false
	}
	l.ids[id] = struct{}{}
	return true
}

// Unlock releases id. Releasing an id that is not held is a no-op.
func (l *LockSet) Unlock(id int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.ids, id)
}

// Held reports whether id is currently locked.
func (l *LockSet) Held(id int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, held := l.ids[id]
	return held
}

// Len returns the number of downloads in progress.
func (l *LockSet) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ids)
}
