package sharing

import "context"

type Repository interface {
	Create(ctx context.Context, g Grant) error
	Update(ctx context.Context, g Grant) error
	GetByID(ctx context.Context, id string) (Grant, error)
	ListByHousehold(ctx context.Context, householdID string) ([]Grant, error)
	ListBySitter(ctx context.Context, sitterUserID string) ([]Grant, error)
	GetActiveGrant(ctx context.Context, householdID, sitterUserID string) (Grant, error)
}
