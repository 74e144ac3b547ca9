package repositories

import (
	"context"
	"fmt"

	"victoria/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// GetRowsForUser retrieves all cart rows for a user joined with the current
// product data. Rows whose product has been removed from the catalog are
// skipped rather than failing the whole load.
func (r *GORMCartRepository) GetRowsForUser(ctx context.Context, userID string) ([]CartJoinedRow, error) {
	var rows []models.CartRow
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get cart rows for user %s: %w", userID, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	productIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		productIDs = append(productIDs, row.ProductID)
	}

	var products []models.Product
	if err := r.db.WithContext(ctx).
		Where("id IN ?", productIDs).
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get products for cart of user %s: %w", userID, err)
	}
	productsByID := make(map[string]models.Product, len(products))
	for _, p := range products {
		productsByID[p.ID] = p
	}

	joined := make([]CartJoinedRow, 0, len(rows))
	for _, row := range rows {
		product, ok := productsByID[row.ProductID]
		if !ok {
			continue
		}
		joined = append(joined, CartJoinedRow{Row: row, Product: product})
	}
	return joined, nil
}

// Upsert inserts a cart row or overwrites its quantity when a row for the
// (userID, productID) pair already exists.
func (r *GORMCartRepository) Upsert(ctx context.Context, userID, productID string, quantity int) error {
	row := models.CartRow{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert cart row for user %s, product %s: %w", userID, productID, err)
	}
	return nil
}

// Delete removes a single cart row. Deleting an absent row is not an error.
func (r *GORMCartRepository) Delete(ctx context.Context, userID, productID string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartRow{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete cart row for user %s, product %s: %w", userID, productID, err)
	}
	return nil
}

// DeleteAll removes every cart row for a user. Idempotent.
func (r *GORMCartRepository) DeleteAll(ctx context.Context, userID string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartRow{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear cart for user %s: %w", userID, err)
	}
	return nil
}
