package services

import (
	"context"
	"log"
	"sync"
	"time"

	"victoria/internal/events"
	"victoria/internal/repositories"
)

// CartEngines bundles the session-scoped engine objects for one user.
type CartEngines struct {
	Session  *UserSession
	Cart     *CartService
	Checkout *CheckoutService
}

// CartManager owns the lifecycle of per-user cart engines: one set is
// constructed when a user signs in (or first touches their cart) and torn
// down on sign-out. There is no process-wide mutable cart; all cart state
// lives in these explicit session-scoped objects.
type CartManager struct {
	products repositories.ProductRepository
	cart     repositories.CartRepository
	orders   repositories.OrderRepository
	mq       OrderEventPublisher
	bus      *events.Bus
	timeout  time.Duration

	mu      sync.Mutex
	engines map[string]*CartEngines
}

// NewCartManager creates a new CartManager.
func NewCartManager(products repositories.ProductRepository, cart repositories.CartRepository, orders repositories.OrderRepository, mq OrderEventPublisher, bus *events.Bus, timeout time.Duration) *CartManager {
	return &CartManager{
		products: products,
		cart:     cart,
		orders:   orders,
		mq:       mq,
		bus:      bus,
		timeout:  timeout,
		engines:  make(map[string]*CartEngines),
	}
}

// For returns the engine set for a user, constructing it on first use. The
// returned session is already signed in.
func (m *CartManager) For(userID string) *CartEngines {
	m.mu.Lock()
	defer m.mu.Unlock()

	if engines, ok := m.engines[userID]; ok {
		return engines
	}

	session := NewUserSession()
	session.Set(userID)
	cartService := NewCartService(session, m.products, m.cart, m.bus, m.timeout)
	engines := &CartEngines{
		Session:  session,
		Cart:     cartService,
		Checkout: NewCheckoutService(session, cartService, m.orders, m.mq, m.timeout),
	}
	m.engines[userID] = engines
	return engines
}

// SignIn builds (or reuses) the user's engines and loads their cart from
// the store. Receiving the same sign-in twice in a row is fine: the reload
// rebuilds the cache from scratch either way.
func (m *CartManager) SignIn(ctx context.Context, userID string) error {
	engines := m.For(userID)
	if err := engines.Cart.Load(ctx); err != nil {
		log.Printf("Cart load on sign-in for user %s failed: %v", userID, err)
		return err
	}
	return nil
}

// Refresh re-affirms the session identity without reloading the cart, for
// token-refresh and profile-update transitions.
func (m *CartManager) Refresh(userID string) {
	m.mu.Lock()
	engines, ok := m.engines[userID]
	m.mu.Unlock()
	if ok {
		engines.Session.Set(userID)
	}
}

// SignOut resets the user's cart cache without any remote delete — the
// remote rows stay for the next sign-in — then tears the engines down.
func (m *CartManager) SignOut(userID string) {
	m.mu.Lock()
	engines, ok := m.engines[userID]
	delete(m.engines, userID)
	m.mu.Unlock()

	if !ok {
		return
	}
	engines.Cart.ResetLocal()
	engines.Session.Clear()
}
