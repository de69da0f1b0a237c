package households

import "context"

// Repository: GetByID y Update devuelven ErrNotFound (o un error que lo envuelva) cuando
// el household no existe. Cualquier otro error se trata como falla de almacenamiento.
type Repository interface {
	Create(ctx context.Context, h Household) error
	Update(ctx context.Context, h Household) error
	GetByID(ctx context.Context, id string) (Household, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]Household, error)
}
