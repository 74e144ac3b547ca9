package services

import (
	"context"
	"errors"
	"log"
	"time"

	"victoria/internal/events"
)

// ErrNoSession is returned by a SessionProvider when no session is active.
var ErrNoSession = errors.New("no active session")

// SessionProvider resolves the currently active session at startup, if the
// identity provider persists one.
type SessionProvider interface {
	ActiveSession(ctx context.Context) (userID string, err error)
}

// SessionBridge subscribes to authentication-state transitions and drives
// the cart engine lifecycle: sign-in loads the user's cart, sign-out resets
// the cache locally. Identity providers may re-fire a signed-in transition
// on token refresh, so the reload path is idempotent.
type SessionBridge struct {
	manager  *CartManager
	bus      *events.Bus
	provider SessionProvider

	// Backoff holds the waits between session restore attempts. The number
	// of attempts is len(Backoff); defaults to three with increasing waits.
	Backoff []time.Duration

	unsubscribe func()
}

// NewSessionBridge creates a bridge. provider may be nil when no session
// persistence exists; Start then skips the restore step.
func NewSessionBridge(manager *CartManager, bus *events.Bus, provider SessionProvider) *SessionBridge {
	return &SessionBridge{
		manager:  manager,
		bus:      bus,
		provider: provider,
		Backoff:  []time.Duration{1 * time.Second, 2 * time.Second, 3 * time.Second},
	}
}

// Start subscribes to the auth event stream and, when a provider is
// configured, restores the active session. Transient restore failures are
// retried with increasing backoff before surfacing a hard error.
func (b *SessionBridge) Start(ctx context.Context) error {
	unsubscribe, err := b.bus.SubscribeAuth(b.handle)
	if err != nil {
		return err
	}
	b.unsubscribe = unsubscribe

	if b.provider == nil {
		return nil
	}

	userID, err := b.restoreSession(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil
		}
		return err
	}
	return b.manager.SignIn(ctx, userID)
}

// Stop detaches the bridge from the auth event stream.
func (b *SessionBridge) Stop() {
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
}

func (b *SessionBridge) handle(event events.AuthEvent) {
	switch event.Kind {
	case events.AuthSignedIn:
		if err := b.manager.SignIn(context.Background(), event.UserID); err != nil {
			log.Printf("Session bridge: cart load for user %s failed: %v", event.UserID, err)
		}
	case events.AuthTokenRefreshed, events.AuthUserUpdated:
		b.manager.Refresh(event.UserID)
	case events.AuthSignedOut:
		b.manager.SignOut(event.UserID)
	}
}

// restoreSession asks the provider for the active session, retrying
// transient failures. ErrNoSession is returned as-is and is not retried.
func (b *SessionBridge) restoreSession(ctx context.Context) (string, error) {
	var lastErr error
	for attempt, wait := range b.Backoff {
		userID, err := b.provider.ActiveSession(ctx)
		if err == nil {
			return userID, nil
		}
		if errors.Is(err, ErrNoSession) {
			return "", err
		}
		lastErr = err
		log.Printf("Session restore attempt %d/%d failed: %v", attempt+1, len(b.Backoff), err)
		if attempt == len(b.Backoff)-1 {
			break
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}
