package handlers

import (
	"errors"

	"victoria/internal/services"

	"github.com/gofiber/fiber/v2"
)

// failJSON normalizes engine errors into one {success, error} result shape
// so callers never need two error-handling paths. Validation rejections and
// store failures come out of the same door with different status codes.
func failJSON(c *fiber.Ctx, err error) error {
	var rejection *services.RejectionError
	var storeErr *services.StoreError
	var partial *services.PartialCheckoutError

	switch {
	case errors.Is(err, services.ErrNotAuthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   services.ErrNotAuthenticated.Error(),
		})
	case errors.Is(err, services.ErrEmptyCart):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   services.ErrEmptyCart.Error(),
		})
	case errors.As(err, &partial):
		// Order header exists without its lines. The cart was preserved;
		// support needs the order id to reconcile.
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success":      false,
			"error":        partial.Error(),
			"order_id":     partial.OrderID,
			"order_number": partial.OrderNumber,
		})
	case errors.As(err, &rejection):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"error":   rejection.Reason,
		})
	case errors.As(err, &storeErr):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   storeErr.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
}

// currentUserID reads the authenticated user id the JWT middleware stored.
func currentUserID(c *fiber.Ctx) (string, bool) {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}
