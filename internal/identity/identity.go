// Package identity supplies the caller identity and bearer credential. The
// sync core treats an unauthenticated provider as "skip network phases,
// operate purely locally".
package identity

import "context"

// Provider yields the active owner identity and a bearer credential. The
// credential is refreshed transparently; callers never cache it.
type Provider interface {
	// CurrentOwnerID returns the authenticated principal's identifier or
	// common.ErrUnauthenticated.
	CurrentOwnerID(ctx context.Context) (string, error)

	// BearerToken returns a currently valid credential for remote calls.
	BearerToken(ctx context.Context) (string, error)
}
