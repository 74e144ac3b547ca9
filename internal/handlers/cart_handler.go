package handlers

import (
	"fmt"
	"log"

	"victoria/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler exposes the cart engine over HTTP. Every response carries one
// {success, error?, ...} result shape; the cart projection is the single
// source of truth for what a mutation actually did.
type CartHandler struct {
	manager  *services.CartManager
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(manager *services.CartManager) *CartHandler {
	return &CartHandler{
		manager:  manager,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the cart and checkout routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Put("/items/:product_id", h.HandleUpdateQuantity)
	cartRoutes.Delete("/items/:product_id", h.HandleRemoveItem)
	cartRoutes.Delete("/", h.HandleClearCart)

	router.Post("/checkout", h.HandleCheckout)
}

// AddItemRequest is the body for adding a product to the cart.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// UpdateQuantityRequest is the body for setting an absolute line quantity.
// Zero or negative removes the line.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// HandleGetCart returns the read-only cart projection for the signed-in
// user, loading it from the store on first touch.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return failJSON(c, services.ErrNotAuthenticated)
	}

	engines := h.manager.For(userID)
	if err := engines.Cart.EnsureLoaded(c.Context()); err != nil {
		log.Printf("Error loading cart for user %s: %v", userID, err)
		return failJSON(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"cart":    engines.Cart.Snapshot(),
	})
}

// HandleAddItem adds quantity units of a product to the cart.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return failJSON(c, services.ErrNotAuthenticated)
	}

	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing add-item request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return h.validationFail(c, err)
	}

	engines := h.manager.For(userID)
	if err := engines.Cart.EnsureLoaded(c.Context()); err != nil {
		return failJSON(c, err)
	}
	if err := engines.Cart.Add(c.Context(), req.ProductID, req.Quantity); err != nil {
		log.Printf("Error adding product %s to cart of user %s: %v", req.ProductID, userID, err)
		return failJSON(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"cart":    engines.Cart.Snapshot(),
	})
}

// HandleUpdateQuantity sets the absolute quantity for one cart line.
func (h *CartHandler) HandleUpdateQuantity(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return failJSON(c, services.ErrNotAuthenticated)
	}
	productID := c.Params("product_id")

	var req UpdateQuantityRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing update-quantity request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	engines := h.manager.For(userID)
	if err := engines.Cart.EnsureLoaded(c.Context()); err != nil {
		return failJSON(c, err)
	}
	if err := engines.Cart.UpdateQuantity(c.Context(), productID, req.Quantity); err != nil {
		log.Printf("Error updating quantity of product %s for user %s: %v", productID, userID, err)
		return failJSON(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"cart":    engines.Cart.Snapshot(),
	})
}

// HandleRemoveItem deletes one product from the cart. Removing an absent
// product still succeeds.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return failJSON(c, services.ErrNotAuthenticated)
	}
	productID := c.Params("product_id")

	engines := h.manager.For(userID)
	if err := engines.Cart.Remove(c.Context(), productID); err != nil {
		log.Printf("Error removing product %s from cart of user %s: %v", productID, userID, err)
		return failJSON(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"cart":    engines.Cart.Snapshot(),
	})
}

// HandleClearCart empties the user's cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return failJSON(c, services.ErrNotAuthenticated)
	}

	engines := h.manager.For(userID)
	if err := engines.Cart.Clear(c.Context()); err != nil {
		log.Printf("Error clearing cart of user %s: %v", userID, err)
		return failJSON(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"cart":    engines.Cart.Snapshot(),
	})
}

// HandleCheckout converts the cart into an order.
func (h *CartHandler) HandleCheckout(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return failJSON(c, services.ErrNotAuthenticated)
	}

	var shipping services.ShippingInfo
	if err := c.BodyParser(&shipping); err != nil {
		log.Printf("Error parsing checkout request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}
	if err := h.validate.Struct(shipping); err != nil {
		return h.validationFail(c, err)
	}

	engines := h.manager.For(userID)
	if err := engines.Cart.EnsureLoaded(c.Context()); err != nil {
		return failJSON(c, err)
	}

	result, err := engines.Checkout.Checkout(c.Context(), shipping)
	if err != nil {
		log.Printf("Error during checkout for user %s: %v", userID, err)
		return failJSON(c, err)
	}

	response := fiber.Map{
		"success":      true,
		"order_id":     result.Order.ID,
		"order_number": result.Order.OrderNumber,
		"total_amount": result.Order.TotalAmount,
		"cart":         engines.Cart.Snapshot(),
	}
	if result.CleanupFailed {
		response["warning"] = "order placed, but the cart could not be cleared"
	}
	return c.Status(fiber.StatusCreated).JSON(response)
}

// validationFail renders validator errors in the common result shape.
func (h *CartHandler) validationFail(c *fiber.Ctx, err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   "Validation failed",
		"fields":  errorMessages,
	})
}
