package handlers

import (
	"fmt"
	"log"
	"strings"

	"victoria/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for the signed-in user's orders.
// Orders are created through checkout only; this handler is read-only.
type OrderHandler struct {
	manager *services.CartManager
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(manager *services.CartManager) *OrderHandler {
	return &OrderHandler{
		manager: manager,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
}

// HandleGetOrders retrieves the signed-in user's orders.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return failJSON(c, services.ErrNotAuthenticated)
	}

	engines := h.manager.For(userID)
	orders, err := engines.Checkout.OrdersForUser(c.Context())
	if err != nil {
		log.Printf("Error getting orders for user %s: %v", userID, err)
		return failJSON(c, err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves one of the signed-in user's orders.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return failJSON(c, services.ErrNotAuthenticated)
	}
	orderID := c.Params("id")

	engines := h.manager.For(userID)
	order, err := engines.Checkout.OrderByID(c.Context(), orderID)
	if err != nil {
		log.Printf("Error getting order %s for user %s: %v", orderID, userID, err)
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   fmt.Sprintf("Order with ID %s not found", orderID),
			})
		}
		return failJSON(c, err)
	}
	return c.JSON(order)
}
