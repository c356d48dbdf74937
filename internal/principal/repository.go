package principal

import "context"

// Repository is the lookup contract the auth core consumes. The wider
// CRUD surface for admins and customers lives outside this module; the
// auth core only needs these operations.
type Repository interface {
	FindByIdentity(ctx context.Context, identity string) (*Principal, error)
	FindByID(ctx context.Context, id string) (*Principal, error)
	Create(ctx context.Context, p *Principal) error
	UpdateSecret(ctx context.Context, id, secretHash string) error
}
