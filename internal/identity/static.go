package identity

import (
	"context"

	"github.com/mkarpins/docsync/internal/common"
)

// StaticProvider returns a fixed identity. Used in tests and for purely
// local (signed-out) operation, where the zero value reports
// common.ErrUnauthenticated.
type StaticProvider struct {
	OwnerID string
	Token   string
}

func (p *StaticProvider) CurrentOwnerID(ctx context.Context) (string, error) {
	if p == nil || p.OwnerID == "" {
		return "", common.ErrUnauthenticated
	}
	return p.OwnerID, nil
}

func (p *StaticProvider) BearerToken(ctx context.Context) (string, error) {
	if p == nil || p.Token == "" {
		return "", common.ErrUnauthenticated
	}
	return p.Token, nil
}
