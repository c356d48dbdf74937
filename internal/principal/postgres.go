package principal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"booking-platform/pkg/utils"

	"github.com/google/uuid"
)

// PostgresRepository implements Repository over one of the two principal
// tables. Admin and customer rows never share a table.
type PostgresRepository struct {
	db    utils.DBTX
	table string
}

func NewAdminRepository(db utils.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, table: "admins"}
}

func NewCustomerRepository(db utils.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, table: "customers"}
}

// WithDB rebinds the repository to another DBTX, typically a *sql.Tx.
func (r *PostgresRepository) WithDB(db utils.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, table: r.table}
}

func (r *PostgresRepository) FindByIdentity(ctx context.Context, identity string) (*Principal, error) {
	q := fmt.Sprintf(`
SELECT id, identity, name, secret_hash, is_verified, created_at, updated_at
FROM %s
WHERE identity = $1
`, r.table)
	return r.scanOne(r.db.QueryRowContext(ctx, q, identity))
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*Principal, error) {
	q := fmt.Sprintf(`
SELECT id, identity, name, secret_hash, is_verified, created_at, updated_at
FROM %s
WHERE id = $1
`, r.table)
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepository) Create(ctx context.Context, p *Principal) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	q := fmt.Sprintf(`
INSERT INTO %s (id, identity, name, secret_hash, is_verified)
VALUES ($1, $2, $3, $4, $5)
`, r.table)
	if _, err := r.db.ExecContext(ctx, q, p.ID, p.Identity, p.Name, p.SecretHash, p.Verified); err != nil {
		return fmt.Errorf("insert principal: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateSecret(ctx context.Context, id, secretHash string) error {
	q := fmt.Sprintf(`
UPDATE %s
SET secret_hash = $2, updated_at = now()
WHERE id = $1
`, r.table)
	res, err := r.db.ExecContext(ctx, q, id, secretHash)
	if err != nil {
		return fmt.Errorf("update secret: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*Principal, error) {
	var p Principal
	if err := row.Scan(&p.ID, &p.Identity, &p.Name, &p.SecretHash, &p.Verified, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan principal: %w", err)
	}
	return &p, nil
}
