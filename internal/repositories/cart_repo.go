package repositories

import (
	"context"

	"victoria/internal/models"
)

// CartJoinedRow is a cart row joined with the current product data, as
// returned by a cart load.
type CartJoinedRow struct {
	Row     models.CartRow
	Product models.Product
}

// CartRepository defines the interface for cart row data access. Upsert uses
// the (userID, productID) pair as its conflict key: a row for an existing
// pair has its quantity overwritten instead of a duplicate being inserted.
// Delete and DeleteAll are idempotent; deleting an absent row is not an error.
type CartRepository interface {
	GetRowsForUser(ctx context.Context, userID string) ([]CartJoinedRow, error)
	Upsert(ctx context.Context, userID, productID string, quantity int) error
	Delete(ctx context.Context, userID, productID string) error
	DeleteAll(ctx context.Context, userID string) error
}
