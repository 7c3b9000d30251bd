//go:build unix

package core

import (
	"io/fs"
	"os/user"
	"strconv"
	"syscall"
)

// NewOwnerLookup returns the platform owner lookup. On unix it maps the
// file's uid to a user name, falling back to the numeric id.
func NewOwnerLookup() OwnerLookup {
	return &unixOwnerLookup{cache: &cachedOwnerLookup{
		names: make(map[string]string),
		resolve: func(id string) (string, error) {
			u, err := user.LookupId(id)
			if err != nil {
				return "", err
			}
			return u.Username, nil
		},
	}}
}

type unixOwnerLookup struct {
	cache *cachedOwnerLookup
}

// Owner implements OwnerLookup.
func (l *unixOwnerLookup) Owner(_ string, info fs.FileInfo) string {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return ""
	}
	return l.cache.name(strconv.FormatUint(uint64(st.Uid), 10))
}
