package audit

import (
	"context"
	"database/sql"
	"fmt"

	"booking-platform/pkg/utils"
)

// PostgresRepo appends events to the audit_events table. There are no
// read methods here; ops query the table directly.
type PostgresRepo struct {
	db utils.DBTX
}

func NewPostgresRepo(db utils.DBTX) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (id, type, principal_type, principal_id, identity, ip_address, message, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		string(e.Type),
		e.PrincipalType,
		nullable(e.PrincipalID),
		nullable(e.Identity),
		nullable(e.IPAddress),
		e.Message,
		nullable(e.Metadata),
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
