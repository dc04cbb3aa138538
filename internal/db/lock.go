package db

import "sync"

// TreeLock serializes all traversal and mutation of directory trees. One
// handle is shared by a database instance and everything mounted below it
// (directly or transitively), which is what makes it safe for an operation
// to delegate into a mounted instance after releasing the lock first.
//
// Holding the lock across any call into another Database instance is a
// self-deadlock. The guard's release method and suspend exist so that
// every such crossing releases first.
type TreeLock struct {
	mu sync.Mutex
}

// NewTreeLock creates a lock handle to be shared across instances.
func NewTreeLock() *TreeLock {
	return &TreeLock{}
}

// acquire locks and returns a guard. Use with defer g.release(); release
// is idempotent, so an operation may release early before delegating into
// a mounted instance and still keep the deferred call.
func (l *TreeLock) acquire() *treeGuard {
	l.mu.Lock()
	return &treeGuard{lock: l, held: true}
}

// suspend runs fn with the lock temporarily released and re-acquires it
// before returning. Used from inside a walk when it crosses into a mount.
// The caller must currently hold the lock.
func (l *TreeLock) suspend(fn func() error) error {
	l.mu.Unlock()
	defer l.mu.Lock()
	return fn()
}

type treeGuard struct {
	lock *TreeLock
	held bool
}

func (g *treeGuard) release() {
	if g.held {
		g.held = false
		g.lock.mu.Unlock()
	}
}
