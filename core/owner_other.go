//go:build !unix

package core

// NewOwnerLookup returns the platform owner lookup. Ownership is not
// resolved on this platform, so every file reports the unknown owner.
func NewOwnerLookup() OwnerLookup {
	return UnknownOwnerLookup{}
}
