package register

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"booking-platform/pkg/utils"

	"github.com/google/uuid"
)

// PostgresStore implements Store over the pending_registrations table.
type PostgresStore struct {
	db utils.DBTX
}

func NewPostgresStore(db utils.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

// WithDB rebinds the store to another DBTX, typically a *sql.Tx during
// promotion.
func (s *PostgresStore) WithDB(db utils.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, p *Pending) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	const q = `
INSERT INTO pending_registrations (id, identity, name, secret_hash, code, code_expires_at, is_verified)
VALUES ($1, $2, $3, $4, $5, $6, false)
ON CONFLICT (identity) DO UPDATE
SET name = EXCLUDED.name,
    secret_hash = EXCLUDED.secret_hash,
    code = EXCLUDED.code,
    code_expires_at = EXCLUDED.code_expires_at,
    created_at = now()
`
	if _, err := s.db.ExecContext(ctx, q, p.ID, p.Identity, p.Name, p.SecretHash, p.Code, p.CodeExpiresAt); err != nil {
		return fmt.Errorf("insert pending registration: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByIdentity(ctx context.Context, identity string) (*Pending, error) {
	const q = `
SELECT id, identity, name, secret_hash, code, code_expires_at, is_verified, created_at
FROM pending_registrations
WHERE identity = $1
`
	var p Pending
	err := s.db.QueryRowContext(ctx, q, identity).Scan(
		&p.ID,
		&p.Identity,
		&p.Name,
		&p.SecretHash,
		&p.Code,
		&p.CodeExpiresAt,
		&p.Verified,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select pending registration: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) UpdateCode(ctx context.Context, id, code string, expiresAt time.Time) error {
	const q = `
UPDATE pending_registrations
SET code = $2, code_expires_at = $3
WHERE id = $1
`
	res, err := s.db.ExecContext(ctx, q, id, code, expiresAt)
	if err != nil {
		return fmt.Errorf("update pending code: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM pending_registrations WHERE id = $1`
	if _, err := s.db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("delete pending registration: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `DELETE FROM pending_registrations WHERE is_verified = false AND created_at < $1`
	res, err := s.db.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete stale registrations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}
