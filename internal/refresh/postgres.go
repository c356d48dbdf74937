package refresh

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"booking-platform/pkg/utils"
)

// PostgresStore implements Store over the refresh_tokens table.
type PostgresStore struct {
	db utils.DBTX
}

func NewPostgresStore(db utils.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, t Token) error {
	const q = `
INSERT INTO refresh_tokens (token, principal_id, principal_type, expires_at)
VALUES ($1, $2, $3, $4)
`
	if _, err := s.db.ExecContext(ctx, q, t.Token, t.PrincipalID, t.PrincipalType, t.ExpiresAt); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, token string) (*Token, error) {
	const q = `
SELECT token, principal_id, principal_type, expires_at, created_at
FROM refresh_tokens
WHERE token = $1
`
	var t Token
	if err := s.db.QueryRowContext(ctx, q, token).Scan(&t.Token, &t.PrincipalID, &t.PrincipalType, &t.ExpiresAt, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select refresh token: %w", err)
	}
	return &t, nil
}

func (s *PostgresStore) Delete(ctx context.Context, token string) error {
	const q = `DELETE FROM refresh_tokens WHERE token = $1`
	if _, err := s.db.ExecContext(ctx, q, token); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteByPrincipal(ctx context.Context, principalType, principalID string) error {
	const q = `DELETE FROM refresh_tokens WHERE principal_type = $1 AND principal_id = $2`
	if _, err := s.db.ExecContext(ctx, q, principalType, principalID); err != nil {
		return fmt.Errorf("delete principal refresh tokens: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const q = `DELETE FROM refresh_tokens WHERE expires_at < $1`
	res, err := s.db.ExecContext(ctx, q, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}
