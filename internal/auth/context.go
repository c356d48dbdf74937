package auth

import (
	"context"
	"errors"

	"booking-platform/internal/token"
)

type ctxKey int

const (
	ctxIdentity ctxKey = iota
	ctxStage
)

// Identity is the fully-authenticated principal attached to a request
// after the full-auth gate passes.
type Identity struct {
	PrincipalID string
	Identity    string
	Type        token.PrincipalType
}

// StageIdentity is the partially-authenticated principal attached after
// the stage gate passes. It never satisfies the full-auth gate.
type StageIdentity struct {
	PrincipalID string
	Identity    string
	Remember    bool
	Type        token.PrincipalType
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxIdentity, id)
}

func IdentityFrom(ctx context.Context) (Identity, error) {
	if id, ok := ctx.Value(ctxIdentity).(Identity); ok && id.PrincipalID != "" {
		return id, nil
	}
	return Identity{}, errors.New("identity not in context")
}

func WithStage(ctx context.Context, s StageIdentity) context.Context {
	return context.WithValue(ctx, ctxStage, s)
}

func StageFrom(ctx context.Context) (StageIdentity, error) {
	if s, ok := ctx.Value(ctxStage).(StageIdentity); ok && s.PrincipalID != "" {
		return s, nil
	}
	return StageIdentity{}, errors.New("stage identity not in context")
}
