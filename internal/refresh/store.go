// Package refresh persists issued refresh credentials. A refresh token
// is only honored when it both verifies cryptographically and still has
// a live row here; deleting the row is the revocation mechanism.
package refresh

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("refresh token not found")

// Token is one persisted refresh credential, keyed by the raw token
// value.
type Token struct {
	Token         string
	PrincipalID   string
	PrincipalType string
	ExpiresAt     time.Time
	CreatedAt     time.Time
}

// Store is the persistence contract for refresh credentials.
type Store interface {
	Create(ctx context.Context, t Token) error
	Find(ctx context.Context, token string) (*Token, error)
	Delete(ctx context.Context, token string) error
	// DeleteByPrincipal revokes every session of one principal, used on
	// password reset.
	DeleteByPrincipal(ctx context.Context, principalType, principalID string) error
	// DeleteExpired removes rows past their expiry and reports how many
	// went. The janitor calls this on a schedule.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
