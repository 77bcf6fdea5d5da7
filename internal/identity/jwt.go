package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mkarpins/docsync/internal/common"
)

// Claims carries the registered claims plus the owner identifier issued by
// the identity backend.
type Claims struct {
	jwt.RegisteredClaims
	UserID string
}

// TokenSource obtains a fresh bearer token, e.g. from a refresh-token
// exchange. It is called whenever the cached token is missing or expired.
type TokenSource func(ctx context.Context) (string, error)

// BearerProvider implements Provider over JWT bearer tokens. The token's
// signature is verified by the issuing backend, not here; the provider only
// extracts the owner identity and tracks expiry for transparent refresh.
type BearerProvider struct {
	mu      sync.Mutex
	source  TokenSource
	token   string
	ownerID string
	expires time.Time
}

func NewBearerProvider(source TokenSource) *BearerProvider {
	return &BearerProvider{source: source}
}

func (p *BearerProvider) refreshLocked(ctx context.Context) error {
	token, err := p.source(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrUnauthenticated, err)
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return fmt.Errorf("%w: malformed token: %w", common.ErrUnauthenticated, err)
	}
	if claims.UserID == "" {
		return fmt.Errorf("%w: token carries no owner id", common.ErrUnauthenticated)
	}

	p.token = token
	p.ownerID = claims.UserID
	if claims.ExpiresAt != nil {
		p.expires = claims.ExpiresAt.Time
	} else {
		p.expires = time.Time{}
	}
	return nil
}

func (p *BearerProvider) ensure(ctx context.Context) error {
	if p.token != "" && (p.expires.IsZero() || time.Now().Before(p.expires)) {
		return nil
	}
	return p.refreshLocked(ctx)
}

func (p *BearerProvider) CurrentOwnerID(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensure(ctx); err != nil {
		return "", err
	}
	return p.ownerID, nil
}

func (p *BearerProvider) BearerToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensure(ctx); err != nil {
		return "", err
	}
	return p.token, nil
}
