package events

import (
	"fmt"
	"sync"

	"victoria/internal/models"
)

// AuthEventKind tags the discrete authentication-state transitions the
// identity provider can emit.
type AuthEventKind string

const (
	AuthSignedIn       AuthEventKind = "signed_in"
	AuthSignedOut      AuthEventKind = "signed_out"
	AuthTokenRefreshed AuthEventKind = "token_refreshed"
	AuthUserUpdated    AuthEventKind = "user_updated"
)

// AuthEvent is an authentication-state transition. UserID is empty for
// signed-out events.
type AuthEvent struct {
	Kind   AuthEventKind
	UserID string
}

// CartEvent is raised whenever a user's cart cache changes, carrying the
// fresh projection so subscribers can re-render without polling.
type CartEvent struct {
	UserID string
	View   models.CartView
}

// DefaultMaxListeners bounds the listener set per event type.
const DefaultMaxListeners = 32

// Bus is a small in-process typed event bus for auth-state and cart-changed
// notifications. Delivery is synchronous on the publisher's goroutine.
type Bus struct {
	mu           sync.RWMutex
	nextID       int
	authSubs     map[int]func(AuthEvent)
	cartSubs     map[int]func(CartEvent)
	maxListeners int
}

// NewBus creates a bus with the default listener bound.
func NewBus() *Bus {
	return &Bus{
		authSubs:     make(map[int]func(AuthEvent)),
		cartSubs:     make(map[int]func(CartEvent)),
		maxListeners: DefaultMaxListeners,
	}
}

// SubscribeAuth registers a listener for auth events and returns an
// unsubscribe func. Fails when the listener set is full.
func (b *Bus) SubscribeAuth(fn func(AuthEvent)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.authSubs) >= b.maxListeners {
		return nil, fmt.Errorf("auth listener limit of %d reached", b.maxListeners)
	}
	id := b.nextID
	b.nextID++
	b.authSubs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.authSubs, id)
	}, nil
}

// SubscribeCart registers a listener for cart-changed events and returns an
// unsubscribe func. Fails when the listener set is full.
func (b *Bus) SubscribeCart(fn func(CartEvent)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.cartSubs) >= b.maxListeners {
		return nil, fmt.Errorf("cart listener limit of %d reached", b.maxListeners)
	}
	id := b.nextID
	b.nextID++
	b.cartSubs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.cartSubs, id)
	}, nil
}

// PublishAuth delivers an auth event to all current auth listeners.
func (b *Bus) PublishAuth(event AuthEvent) {
	for _, fn := range b.snapshotAuth() {
		fn(event)
	}
}

// PublishCart delivers a cart-changed event to all current cart listeners.
func (b *Bus) PublishCart(event CartEvent) {
	for _, fn := range b.snapshotCart() {
		fn(event)
	}
}

// snapshotAuth copies the listener set so delivery runs without the lock
// held; a listener may subscribe or unsubscribe from inside its callback.
func (b *Bus) snapshotAuth() []func(AuthEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subs := make([]func(AuthEvent), 0, len(b.authSubs))
	for _, fn := range b.authSubs {
		subs = append(subs, fn)
	}
	return subs
}

func (b *Bus) snapshotCart() []func(CartEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subs := make([]func(CartEvent), 0, len(b.cartSubs))
	for _, fn := range b.cartSubs {
		subs = append(subs, fn)
	}
	return subs
}
