package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"victoria/internal/models"
	"victoria/internal/repositories"

	"github.com/google/uuid"
)

// OrderEventPublisher publishes order lifecycle events to the message
// broker. May be backed by pkg/rabbitmq or a test double.
type OrderEventPublisher interface {
	PublishOrderEvent(eventType string, payload map[string]interface{}) error
}

// ShippingInfo is the delivery data collected at checkout.
type ShippingInfo struct {
	Address string `json:"shipping_address" validate:"required,min=5,max=300"`
	Phone   string `json:"phone" validate:"required,min=7,max=20"`
	Notes   string `json:"notes" validate:"omitempty,max=500"`
}

// CheckoutResult reports a completed checkout. CleanupFailed is set when
// the order was fully placed but the remote cart clear did not acknowledge;
// the order stands regardless.
type CheckoutResult struct {
	Order         *models.Order
	CleanupFailed bool
}

// CheckoutService converts the current cart into an order header plus order
// lines, then clears the cart. It owns the multi-step failure policy:
//
//   - header write fails: nothing is persisted, the error is surfaced;
//   - line write fails after the header: integrity hazard — the header is
//     moved to a failed status, the cart is left intact, and the failure is
//     reported as a PartialCheckoutError;
//   - cart clear fails after header and lines: the order is valid and
//     complete, the clear failure is non-fatal.
//
// Stock is not decremented here; inventory adjustment happens on
// fulfillment.
type CheckoutService struct {
	session *UserSession
	cart    *CartService
	orders  repositories.OrderRepository
	mq      OrderEventPublisher
	timeout time.Duration
}

// NewCheckoutService creates a new CheckoutService. mq may be nil when no
// broker is configured. A timeout of zero or less selects
// DefaultStoreTimeout.
func NewCheckoutService(session *UserSession, cart *CartService, orders repositories.OrderRepository, mq OrderEventPublisher, timeout time.Duration) *CheckoutService {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &CheckoutService{
		session: session,
		cart:    cart,
		orders:  orders,
		mq:      mq,
		timeout: timeout,
	}
}

// Checkout places an order from the current cart. The cart total and lines
// are snapshotted before any write begins, so a concurrent cart mutation
// started after checkout begins cannot change what gets billed.
func (s *CheckoutService) Checkout(ctx context.Context, shipping ShippingInfo) (*CheckoutResult, error) {
	userID, ok := s.session.CurrentUserID()
	if !ok {
		return nil, ErrNotAuthenticated
	}

	snapshot := s.cart.Snapshot()
	if len(snapshot.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	order := &models.Order{
		ID:              uuid.New().String(),
		OrderNumber:     newOrderNumber(),
		UserID:          userID,
		TotalAmount:     snapshot.Total,
		ShippingAddress: shipping.Address,
		Phone:           shipping.Phone,
		Notes:           shipping.Notes,
		Status:          models.OrderStatusPending,
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.orders.Create(callCtx, order); err != nil {
		// Nothing persisted; a plain rejection from the caller's view.
		return nil, &StoreError{Op: "order create", Err: err}
	}

	items := make([]models.OrderItem, 0, len(snapshot.Lines))
	for _, line := range snapshot.Lines {
		items = append(items, models.OrderItem{
			OrderID:    order.ID,
			ProductID:  line.ProductID,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			TotalPrice: line.Subtotal(),
		})
	}

	itemsCtx, cancelItems := context.WithTimeout(ctx, s.timeout)
	defer cancelItems()
	if err := s.orders.CreateItems(itemsCtx, items); err != nil {
		s.reportPartialFailure(ctx, order, err)
		return nil, &PartialCheckoutError{OrderID: order.ID, OrderNumber: order.OrderNumber, Err: err}
	}

	result := &CheckoutResult{Order: order}
	if err := s.cart.Clear(ctx); err != nil {
		// The order is complete; losing the clear only leaves stale cart
		// rows behind. Never roll the order back for this.
		log.Printf("Warning: cart clear after order %s failed: %v", order.ID, err)
		result.CleanupFailed = true
	}

	s.publishEvent("order.created", map[string]interface{}{
		"orderID":     order.ID,
		"orderNumber": order.OrderNumber,
		"userID":      order.UserID,
		"status":      order.Status,
		"total":       order.TotalAmount,
	})

	return result, nil
}

// OrdersForUser retrieves the signed-in user's orders.
func (s *CheckoutService) OrdersForUser(ctx context.Context) ([]models.Order, error) {
	userID, ok := s.session.CurrentUserID()
	if !ok {
		return nil, ErrNotAuthenticated
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	orders, err := s.orders.GetAllForUser(callCtx, userID)
	if err != nil {
		return nil, &StoreError{Op: "order list", Err: err}
	}
	return orders, nil
}

// OrderByID retrieves one of the signed-in user's orders. Another user's
// order is reported as not found rather than revealing its existence.
func (s *CheckoutService) OrderByID(ctx context.Context, id string) (*models.Order, error) {
	userID, ok := s.session.CurrentUserID()
	if !ok {
		return nil, ErrNotAuthenticated
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	order, err := s.orders.GetByID(callCtx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("order with ID %s not found", id)
	}
	return order, nil
}

// reportPartialFailure handles an order header left without its lines. The
// header is moved to a failed status when the store accepts it, and the
// hazard is logged and published distinctly so it can never be mistaken for
// an ordinary failure. The cart is deliberately not cleared.
func (s *CheckoutService) reportPartialFailure(ctx context.Context, order *models.Order, cause error) {
	log.Printf("INTEGRITY HAZARD: order %s (%s) persisted without its lines: %v", order.ID, order.OrderNumber, cause)

	statusCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.orders.UpdateStatus(statusCtx, order.ID, models.OrderStatusFailed); err != nil {
		log.Printf("INTEGRITY HAZARD: could not mark order %s as failed: %v", order.ID, err)
	}

	s.publishEvent("order.checkout_failed", map[string]interface{}{
		"orderID":     order.ID,
		"orderNumber": order.OrderNumber,
		"userID":      order.UserID,
		"reason":      cause.Error(),
	})
}

func (s *CheckoutService) publishEvent(eventType string, payload map[string]interface{}) {
	if s.mq == nil {
		log.Println("Message broker client is not initialized. Skipping event publication.")
		return
	}
	if err := s.mq.PublishOrderEvent(eventType, payload); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", eventType, err)
	}
}

// newOrderNumber builds a human-readable order number like
// ORD-20260901-1A2B3C4D.
func newOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
	return fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102"), suffix)
}
