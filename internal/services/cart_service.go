package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"victoria/internal/events"
	"victoria/internal/models"
	"victoria/internal/repositories"
)

// DefaultStoreTimeout bounds every single remote-store call issued by the
// cart engine. A call that never settles must not leave a product's
// mutation slot locked forever; when the timeout fires the call resolves as
// a recoverable StoreError and the per-product lock is released.
const DefaultStoreTimeout = 10 * time.Second

// CartService keeps the in-memory mirror of one signed-in user's cart rows
// in sync with the remote store. All mutating operations follow the same
// ordering rule: validate against a fresh product snapshot, write to the
// store, and only then mutate the local cache. The cache is never ahead of
// the durable store.
//
// Mutations for the same product are serialized; a race between two adds
// could otherwise let both see the pre-update quantity and together exceed
// stock. Mutations on different products proceed concurrently.
type CartService struct {
	session  *UserSession
	products repositories.ProductRepository
	cart     repositories.CartRepository
	bus      *events.Bus
	timeout  time.Duration

	mu     sync.RWMutex
	lines  []models.CartLine
	loaded bool

	locks keyedLocks
}

// NewCartService creates a cart engine bound to a session. A timeout of
// zero or less selects DefaultStoreTimeout.
func NewCartService(session *UserSession, products repositories.ProductRepository, cart repositories.CartRepository, bus *events.Bus, timeout time.Duration) *CartService {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &CartService{
		session:  session,
		products: products,
		cart:     cart,
		bus:      bus,
		timeout:  timeout,
	}
}

// Snapshot returns the read-only projection of the cart cache. Count and
// total are folded from the lines every time, never stored independently.
func (s *CartService) Snapshot() models.CartView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := make([]models.CartLine, len(s.lines))
	copy(lines, s.lines)
	return models.NewCartView(lines)
}

// Load rebuilds the cache from the remote cart rows joined with current
// product data, discarding any prior in-memory state. On a store failure
// the cache is left empty and a recoverable error is reported.
func (s *CartService) Load(ctx context.Context) error {
	userID, ok := s.session.CurrentUserID()
	if !ok {
		return ErrNotAuthenticated
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.cart.GetRowsForUser(callCtx, userID)
	if err != nil {
		s.mu.Lock()
		s.lines = nil
		s.loaded = false
		s.mu.Unlock()
		s.notify(userID)
		return &StoreError{Op: "cart load", Err: err}
	}

	lines := make([]models.CartLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, lineFromProduct(&row.Product, row.Row.Quantity))
	}

	s.mu.Lock()
	s.lines = lines
	s.loaded = true
	s.mu.Unlock()
	s.notify(userID)
	return nil
}

// EnsureLoaded loads the cart once per session; later calls are no-ops
// until a sign-out resets the engine. A failed load stays unloaded so the
// caller can retry.
func (s *CartService) EnsureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	return s.Load(ctx)
}

// Add puts quantity more units of a product into the cart. An add for a
// product already in the cart increments its quantity; the combined total
// is validated against a fresh stock snapshot before the upsert.
func (s *CartService) Add(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return &RejectionError{Reason: "quantity must be at least 1"}
	}
	userID, ok := s.session.CurrentUserID()
	if !ok {
		return ErrNotAuthenticated
	}

	unlock := s.locks.lock(productID)
	defer unlock()

	product, err := s.fetchProduct(ctx, productID)
	if err != nil {
		return err
	}

	newTotal := s.quantityOf(productID) + quantity
	if err := ValidateQuantity(product, newTotal); err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.cart.Upsert(callCtx, userID, productID, newTotal); err != nil {
		return &StoreError{Op: "cart upsert", Err: err}
	}

	s.setLine(lineFromProduct(product, newTotal))
	s.notify(userID)
	return nil
}

// UpdateQuantity sets a cart line to an absolute quantity, re-validated
// against a fresh stock snapshot. A quantity of zero or less removes the
// line.
func (s *CartService) UpdateQuantity(ctx context.Context, productID string, newQuantity int) error {
	if newQuantity <= 0 {
		return s.Remove(ctx, productID)
	}
	userID, ok := s.session.CurrentUserID()
	if !ok {
		return ErrNotAuthenticated
	}

	unlock := s.locks.lock(productID)
	defer unlock()

	product, err := s.fetchProduct(ctx, productID)
	if err != nil {
		return err
	}
	if err := ValidateQuantity(product, newQuantity); err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.cart.Upsert(callCtx, userID, productID, newQuantity); err != nil {
		return &StoreError{Op: "cart update", Err: err}
	}

	s.setLine(lineFromProduct(product, newQuantity))
	s.notify(userID)
	return nil
}

// Remove deletes a product from the cart. Removing a product that is not in
// the cart is not an error; once the remote delete acknowledges, the local
// line is gone either way.
func (s *CartService) Remove(ctx context.Context, productID string) error {
	userID, ok := s.session.CurrentUserID()
	if !ok {
		return ErrNotAuthenticated
	}

	unlock := s.locks.lock(productID)
	defer unlock()

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.cart.Delete(callCtx, userID, productID); err != nil {
		return &StoreError{Op: "cart delete", Err: err}
	}

	s.dropLine(productID)
	s.notify(userID)
	return nil
}

// Clear deletes every cart row for the user and empties the cache.
// Idempotent.
func (s *CartService) Clear(ctx context.Context) error {
	userID, ok := s.session.CurrentUserID()
	if !ok {
		return ErrNotAuthenticated
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.cart.DeleteAll(callCtx, userID); err != nil {
		return &StoreError{Op: "cart clear", Err: err}
	}

	s.mu.Lock()
	s.lines = nil
	s.mu.Unlock()
	s.notify(userID)
	return nil
}

// ResetLocal empties the cache without touching the remote store. Used on
// sign-out: the user's remote rows stay put, they are simply no longer
// visible to a signed-out context.
func (s *CartService) ResetLocal() {
	userID, _ := s.session.CurrentUserID()

	s.mu.Lock()
	s.lines = nil
	s.loaded = false
	s.mu.Unlock()
	s.notify(userID)
}

// fetchProduct fetches a fresh product snapshot, normalizing errors into
// the engine's taxonomy: a timed-out call is a recoverable store failure,
// a missing product is a user-facing rejection.
func (s *CartService) fetchProduct(ctx context.Context, productID string) (*models.Product, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	product, err := s.products.GetByID(callCtx, productID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, &StoreError{Op: "product fetch", Err: err}
		}
		if strings.Contains(err.Error(), "not found") {
			return nil, &RejectionError{Reason: "product not found"}
		}
		return nil, &StoreError{Op: "product fetch", Err: err}
	}
	return product, nil
}

func (s *CartService) quantityOf(productID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, line := range s.lines {
		if line.ProductID == productID {
			return line.Quantity
		}
	}
	return 0
}

// setLine replaces the line for a product, keeping its display position, or
// appends a new line at the end.
func (s *CartService) setLine(line models.CartLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.lines {
		if s.lines[i].ProductID == line.ProductID {
			s.lines[i] = line
			return
		}
	}
	s.lines = append(s.lines, line)
}

func (s *CartService) dropLine(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return
		}
	}
}

func (s *CartService) notify(userID string) {
	if s.bus == nil {
		return
	}
	s.bus.PublishCart(events.CartEvent{UserID: userID, View: s.Snapshot()})
}

// lineFromProduct builds a cache line from a product snapshot and quantity.
func lineFromProduct(product *models.Product, quantity int) models.CartLine {
	return models.CartLine{
		ProductID:      product.ID,
		Name:           product.Name,
		UnitPrice:      product.Price,
		Quantity:       quantity,
		StockAvailable: product.Stock,
		Unit:           product.DisplayUnit(),
		ImageURL:       product.ImageURL,
		Active:         product.Active,
	}
}

// keyedLocks serializes mutations per product id. The lock map only grows
// with the number of distinct products a session touches.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedLocks) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
