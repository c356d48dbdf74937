package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"booking-platform/internal/refresh"
	"booking-platform/internal/token"
)

// ResultKind tags the outcome of a full-auth check.
type ResultKind int

const (
	// Rejected: neither credential establishes the caller.
	Rejected ResultKind = iota
	// Authenticated: the access credential verified as presented.
	Authenticated
	// Reissued: the access credential was expired or absent but the
	// refresh credential held; a fresh access token is attached and the
	// caller is responsible for applying it to the response.
	Reissued
)

// Result is the outcome of Authenticator.Check. Keeping the reissued
// token in the result, rather than writing the cookie inside the check,
// keeps verification pure and testable away from the transport.
type Result struct {
	Kind     ResultKind
	Identity Identity

	// Set only when Kind == Reissued.
	NewAccessToken string
	NewAccessTTL   time.Duration

	// Reason is the server-side failure detail. It never reaches the
	// client; the response stays a uniform 401.
	Reason string
}

// Authenticator decides full-auth requests from the credential pair.
// The refresh path is idempotent: it never mutates or deletes a live
// refresh row, so every authenticated request is a safe rotation point.
type Authenticator struct {
	tokens *token.Manager
	store  refresh.Store
}

func NewAuthenticator(tokens *token.Manager, store refresh.Store) *Authenticator {
	return &Authenticator{tokens: tokens, store: store}
}

func rejected(format string, args ...any) Result {
	return Result{Kind: Rejected, Reason: fmt.Sprintf(format, args...)}
}

// Check runs the per-request state machine: verify access, fall back to
// the refresh credential on expiry, reject otherwise.
func (a *Authenticator) Check(ctx context.Context, typ token.PrincipalType, accessToken, refreshToken string, now time.Time) Result {
	if accessToken == "" || refreshToken == "" {
		return rejected("credential absent (access present=%t, refresh present=%t)", accessToken != "", refreshToken != "")
	}

	claims, accessErr := a.tokens.Verify(accessToken, typ, token.ClassAccess, now)
	if accessErr == nil {
		return Result{
			Kind: Authenticated,
			Identity: Identity{
				PrincipalID: claims.PrincipalID,
				Identity:    claims.Identity,
				Type:        typ,
			},
		}
	}

	// Access failed; the refresh credential is the only way forward.
	refreshClaims, err := a.tokens.Verify(refreshToken, typ, token.ClassRefresh, now)
	if err != nil {
		return rejected("access rejected (%v); refresh rejected (%v)", accessErr, err)
	}

	// Dual check: the token must also have a live store row. A missing
	// row means it was revoked; an expired row is reclaimed on sight.
	row, err := a.store.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, refresh.ErrNotFound) {
			return rejected("access rejected (%v); refresh token revoked", accessErr)
		}
		return rejected("refresh store lookup failed: %v", err)
	}
	if row.ExpiresAt.Before(now) {
		// Lazy cleanup; the janitor would get it eventually.
		if delErr := a.store.Delete(ctx, refreshToken); delErr != nil {
			return rejected("refresh token store-expired; cleanup failed: %v", delErr)
		}
		return rejected("access rejected (%v); refresh token store-expired", accessErr)
	}

	newAccess, ttl, err := a.tokens.Issue(now, typ, token.ClassAccess, token.Subject{
		ID:       refreshClaims.PrincipalID,
		Identity: refreshClaims.Identity,
	})
	if err != nil {
		return rejected("access reissue failed: %v", err)
	}

	return Result{
		Kind: Reissued,
		Identity: Identity{
			PrincipalID: refreshClaims.PrincipalID,
			Identity:    refreshClaims.Identity,
			Type:        typ,
		},
		NewAccessToken: newAccess,
		NewAccessTTL:   ttl,
	}
}
