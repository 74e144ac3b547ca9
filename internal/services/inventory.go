package services

import (
	"fmt"

	"victoria/internal/models"
)

// ValidateQuantity checks a requested total quantity against a product
// snapshot. The snapshot must be freshly fetched immediately before the
// mutating write; stock can change between cart loads, so a cached figure
// is not an acceptable input.
func ValidateQuantity(product *models.Product, requested int) error {
	if !product.Active {
		return &RejectionError{Reason: "product not available"}
	}
	if requested > product.Stock {
		return &RejectionError{Reason: fmt.Sprintf("insufficient stock, available = %d", product.Stock)}
	}
	return nil
}
