package repositories

import (
	"context"
	"fmt"
	"sync"

	"victoria/internal/models"
)

type cartKey struct {
	userID    string
	productID string
}

// MockCartRepository is an in-memory implementation of CartRepository. It
// shares a MockProductRepository so loads can join rows with product data.
type MockCartRepository struct {
	rows     map[cartKey]models.CartRow
	order    []cartKey // insertion order, for display-stable loads
	products *MockProductRepository
	mu       sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository backed
// by the given product repository.
func NewMockCartRepository(products *MockProductRepository) *MockCartRepository {
	return &MockCartRepository{
		rows:     make(map[cartKey]models.CartRow),
		products: products,
	}
}

// GetRowsForUser returns the user's cart rows joined with current products.
func (r *MockCartRepository) GetRowsForUser(ctx context.Context, userID string) ([]CartJoinedRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var joined []CartJoinedRow
	for _, key := range r.order {
		if key.userID != userID {
			continue
		}
		row, ok := r.rows[key]
		if !ok {
			continue
		}
		product, err := r.products.GetByID(ctx, key.productID)
		if err != nil {
			continue
		}
		joined = append(joined, CartJoinedRow{Row: row, Product: *product})
	}
	return joined, nil
}

// Upsert inserts or overwrites the row for the (userID, productID) pair.
func (r *MockCartRepository) Upsert(ctx context.Context, userID, productID string, quantity int) error {
	if _, err := r.products.GetByID(ctx, productID); err != nil {
		return fmt.Errorf("cannot upsert cart row: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := cartKey{userID: userID, productID: productID}
	if _, exists := r.rows[key]; !exists {
		r.order = append(r.order, key)
	}
	r.rows[key] = models.CartRow{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	return nil
}

// Delete removes a single cart row. Idempotent.
func (r *MockCartRepository) Delete(ctx context.Context, userID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rows, cartKey{userID: userID, productID: productID})
	return nil
}

// DeleteAll removes every cart row for a user. Idempotent.
func (r *MockCartRepository) DeleteAll(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range r.rows {
		if key.userID == userID {
			delete(r.rows, key)
		}
	}
	return nil
}
