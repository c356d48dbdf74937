package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.

type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information for the auth core.
//
// IMPORTANT:
// - Audit is internal-only. Do not expose these records to end users.
// - Callers should treat audit logging as best-effort.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}
	if e.PrincipalType == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogAuthFailure records which verification branch rejected a request.
// The client only ever sees a uniform 401; this is where the real
// reason lands.
func (s *Service) LogAuthFailure(ctx context.Context, principalType, identity, ip, reason string) error {
	return s.Append(ctx, Event{
		Type:          EventTypeLoginFailure,
		PrincipalType: principalType,
		Identity:      identity,
		IPAddress:     ip,
		Message:       reason,
	})
}

// LogReissue records a silent access-token renewal from a refresh
// credential.
func (s *Service) LogReissue(ctx context.Context, principalType, principalID, ip string) error {
	return s.Append(ctx, Event{
		Type:          EventTypeTokenReissued,
		PrincipalType: principalType,
		PrincipalID:   principalID,
		IPAddress:     ip,
		Message:       "access token reissued from refresh credential",
	})
}
