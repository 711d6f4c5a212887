package indexer

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultPathLockCapacity bounds how many per-path mutexes are retained
const DefaultPathLockCapacity = 1024

// PathLocks hands out one mutex per file path so concurrent index and remove
// operations on the same path serialize while different paths proceed in
// parallel. The map is bounded with LRU eviction; an evicted entry simply
// means a later call for that path gets a fresh mutex, which is acceptable
// because eviction only happens after many other paths have been locked in
// between.
type PathLocks struct {
	mu    sync.Mutex
	locks *lru.Cache[string, *sync.Mutex]
}

// NewPathLocks creates a lock map retaining at most capacity entries
func NewPathLocks(capacity int) *PathLocks {
	if capacity <= 0 {
		capacity = DefaultPathLockCapacity
	}
	cache, err := lru.New[string, *sync.Mutex](capacity)
	if err != nil {
		cache, _ = lru.New[string, *sync.Mutex](DefaultPathLockCapacity)
	}
	return &PathLocks{locks: cache}
}

// Get returns the mutex for path, creating it on first use
func (p *PathLocks) Get(path string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := p.locks.Get(path); ok {
		return m
	}
	m := &sync.Mutex{}
	p.locks.Add(path, m)
	return m
}

// Len reports how many path mutexes are currently retained
func (p *PathLocks) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.locks.Len()
}
