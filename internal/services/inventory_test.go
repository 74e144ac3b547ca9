package services_test

import (
	"errors"
	"testing"

	"victoria/internal/models"
	"victoria/internal/services"

	"github.com/stretchr/testify/assert"
)

func TestValidateQuantity_OK(t *testing.T) {
	product := &models.Product{ID: "p1", Name: "Coffee", Stock: 10, Active: true}

	assert.NoError(t, services.ValidateQuantity(product, 1))
	assert.NoError(t, services.ValidateQuantity(product, 10))
}

func TestValidateQuantity_InactiveProduct(t *testing.T) {
	product := &models.Product{ID: "p1", Name: "Coffee", Stock: 10, Active: false}

	err := services.ValidateQuantity(product, 1)
	assert.Error(t, err)

	var rejection *services.RejectionError
	assert.True(t, errors.As(err, &rejection))
	assert.Equal(t, "product not available", rejection.Reason)
}

func TestValidateQuantity_InsufficientStock(t *testing.T) {
	product := &models.Product{ID: "p1", Name: "Coffee", Stock: 5, Active: true}

	err := services.ValidateQuantity(product, 6)
	assert.Error(t, err)

	var rejection *services.RejectionError
	assert.True(t, errors.As(err, &rejection))
	assert.Equal(t, "insufficient stock, available = 5", rejection.Reason)
}

func TestValidateQuantity_InactiveWinsOverStock(t *testing.T) {
	// An inactive product is rejected as unavailable even when the
	// requested quantity would also exceed stock.
	product := &models.Product{ID: "p1", Name: "Coffee", Stock: 0, Active: false}

	err := services.ValidateQuantity(product, 3)
	var rejection *services.RejectionError
	assert.True(t, errors.As(err, &rejection))
	assert.Equal(t, "product not available", rejection.Reason)
}
