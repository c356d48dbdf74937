// Package register holds customer sign-ups that have not completed
// verification yet. A pending row is promoted to a customer principal on
// successful code entry, or reclaimed by the janitor once it goes stale.
package register

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("pending registration not found")

// Pending is one unverified sign-up: the submitted profile plus the
// one-time verification code with its own expiry.
type Pending struct {
	ID         string
	Identity   string
	Name       string
	SecretHash string

	Code          string
	CodeExpiresAt time.Time

	Verified  bool
	CreatedAt time.Time
}

type Store interface {
	Create(ctx context.Context, p *Pending) error
	FindByIdentity(ctx context.Context, identity string) (*Pending, error)
	// UpdateCode replaces the verification code on resend.
	UpdateCode(ctx context.Context, id, code string, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
	// DeleteStale removes unverified rows created before the cutoff and
	// reports how many went.
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}
