package principal

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no principal matches the lookup.
var ErrNotFound = errors.New("principal not found")

// Principal is an authenticated actor: an administrator or a customer.
// The two live in separate tables and are verified against fully
// separate secret families; nothing downstream may treat them as
// interchangeable.
type Principal struct {
	ID         string
	Identity   string // email or phone, the login field
	Name       string
	SecretHash string

	// Verified applies to customers only; admins are provisioned
	// verified.
	Verified bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
