package repositories

import (
	"context"

	"victoria/internal/models"
)

// OrderRepository defines the interface for order data access. Create writes
// only the order header; CreateItems writes the order lines as a separate
// step so the checkout flow owns the multi-step failure policy.
type OrderRepository interface {
	GetAllForUser(ctx context.Context, userID string) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	UpdateStatus(ctx context.Context, id string, status string) error
}
