package core

import (
	"io/fs"
	"sync"
)

// OwnerLookup resolves the owner of a file. Implementations return an
// empty string when the owner cannot be determined.
type OwnerLookup interface {
	Owner(path string, info fs.FileInfo) string
}

// UnknownOwnerLookup never resolves an owner.
type UnknownOwnerLookup struct{}

// Owner implements OwnerLookup.
func (UnknownOwnerLookup) Owner(string, fs.FileInfo) string { return "" }

// cachedOwnerLookup memoizes owner ids so each account is resolved once per
// process.
type cachedOwnerLookup struct {
	mu    sync.Mutex
	names map[string]string
	// resolve maps a platform owner id to a display name.
	resolve func(id string) (string, error)
}

func (c *cachedOwnerLookup) name(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.names[id]; ok {
		return n
	}
	n, err := c.resolve(id)
	if err != nil || n == "" {
		n = id
	}
	c.names[id] = n
	return n
}
