package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"victoria/internal/events"
	"victoria/internal/models"
	"victoria/internal/repositories"
	"victoria/internal/services"

	"github.com/stretchr/testify/assert"
)

// flakySessionProvider fails a fixed number of times before answering.
type flakySessionProvider struct {
	failures int
	userID   string
	err      error
	calls    int
}

func (p *flakySessionProvider) ActiveSession(ctx context.Context) (string, error) {
	p.calls++
	if p.calls <= p.failures {
		return "", fmt.Errorf("identity provider unreachable")
	}
	if p.err != nil {
		return "", p.err
	}
	return p.userID, nil
}

func bridgeFixture(t *testing.T) (*services.CartManager, *events.Bus, *repositories.MockCartRepository) {
	t.Helper()
	productRepo := repositories.NewMockProductRepository()
	cartRepo := repositories.NewMockCartRepository(productRepo)
	orderRepo := repositories.NewMockOrderRepository()
	bus := events.NewBus()
	manager := services.NewCartManager(productRepo, cartRepo, orderRepo, nil, bus, 0)

	product := &models.Product{ID: "p1", Name: "Coffee", Price: 10.0, Stock: 5, Active: true}
	assert.NoError(t, productRepo.Create(context.Background(), product))
	assert.NoError(t, cartRepo.Upsert(context.Background(), "user-1", "p1", 2))
	return manager, bus, cartRepo
}

func fastBackoff(bridge *services.SessionBridge) {
	bridge.Backoff = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}
}

func TestSessionBridge_SignInLoadsCart(t *testing.T) {
	manager, bus, _ := bridgeFixture(t)
	bridge := services.NewSessionBridge(manager, bus, nil)
	assert.NoError(t, bridge.Start(context.Background()))
	defer bridge.Stop()

	bus.PublishAuth(events.AuthEvent{Kind: events.AuthSignedIn, UserID: "user-1"})

	view := manager.For("user-1").Cart.Snapshot()
	assert.Len(t, view.Lines, 1)
	assert.Equal(t, 2, view.Count)
	assert.Equal(t, 20.0, view.Total)
}

func TestSessionBridge_DuplicateSignInIsIdempotent(t *testing.T) {
	manager, bus, _ := bridgeFixture(t)
	bridge := services.NewSessionBridge(manager, bus, nil)
	assert.NoError(t, bridge.Start(context.Background()))
	defer bridge.Stop()

	bus.PublishAuth(events.AuthEvent{Kind: events.AuthSignedIn, UserID: "user-1"})
	bus.PublishAuth(events.AuthEvent{Kind: events.AuthSignedIn, UserID: "user-1"})

	view := manager.For("user-1").Cart.Snapshot()
	assert.Len(t, view.Lines, 1)
	assert.Equal(t, 2, view.Lines[0].Quantity)
}

func TestSessionBridge_SignOutResetsLocallyOnly(t *testing.T) {
	manager, bus, cartRepo := bridgeFixture(t)
	bridge := services.NewSessionBridge(manager, bus, nil)
	assert.NoError(t, bridge.Start(context.Background()))
	defer bridge.Stop()

	bus.PublishAuth(events.AuthEvent{Kind: events.AuthSignedIn, UserID: "user-1"})
	engines := manager.For("user-1")
	assert.Len(t, engines.Cart.Snapshot().Lines, 1)

	bus.PublishAuth(events.AuthEvent{Kind: events.AuthSignedOut, UserID: "user-1"})

	// The torn-down engines lost their cache and their session.
	assert.Empty(t, engines.Cart.Snapshot().Lines)
	_, signedIn := engines.Session.CurrentUserID()
	assert.False(t, signedIn)

	// The remote rows survive for the next sign-in.
	rows, err := cartRepo.GetRowsForUser(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Len(t, rows, 1)

	bus.PublishAuth(events.AuthEvent{Kind: events.AuthSignedIn, UserID: "user-1"})
	assert.Len(t, manager.For("user-1").Cart.Snapshot().Lines, 1)
}

func TestSessionBridge_TokenRefreshDoesNotReload(t *testing.T) {
	manager, bus, cartRepo := bridgeFixture(t)
	bridge := services.NewSessionBridge(manager, bus, nil)
	assert.NoError(t, bridge.Start(context.Background()))
	defer bridge.Stop()

	bus.PublishAuth(events.AuthEvent{Kind: events.AuthSignedIn, UserID: "user-1"})

	// A remote change after sign-in is invisible to a refresh; only a real
	// sign-in reloads.
	assert.NoError(t, cartRepo.Upsert(context.Background(), "user-1", "p1", 5))
	bus.PublishAuth(events.AuthEvent{Kind: events.AuthTokenRefreshed, UserID: "user-1"})

	view := manager.For("user-1").Cart.Snapshot()
	assert.Equal(t, 2, view.Lines[0].Quantity)

	userID, signedIn := manager.For("user-1").Session.CurrentUserID()
	assert.True(t, signedIn)
	assert.Equal(t, "user-1", userID)
}

func TestSessionBridge_RestoreRetriesTransientFailures(t *testing.T) {
	manager, bus, _ := bridgeFixture(t)
	provider := &flakySessionProvider{failures: 2, userID: "user-1"}
	bridge := services.NewSessionBridge(manager, bus, provider)
	fastBackoff(bridge)

	assert.NoError(t, bridge.Start(context.Background()))
	defer bridge.Stop()

	assert.Equal(t, 3, provider.calls)
	view := manager.For("user-1").Cart.Snapshot()
	assert.Len(t, view.Lines, 1)
}

func TestSessionBridge_RestoreNoSession(t *testing.T) {
	manager, bus, _ := bridgeFixture(t)
	provider := &flakySessionProvider{err: services.ErrNoSession}
	bridge := services.NewSessionBridge(manager, bus, provider)
	fastBackoff(bridge)

	// No persisted session is the normal cold-start case, not an error,
	// and is never retried.
	assert.NoError(t, bridge.Start(context.Background()))
	defer bridge.Stop()
	assert.Equal(t, 1, provider.calls)

	_, signedIn := manager.For("user-1").Session.CurrentUserID()
	assert.True(t, signedIn) // For() signs the session in on construction
}

func TestSessionBridge_RestoreGivesUpAfterAllAttempts(t *testing.T) {
	manager, bus, _ := bridgeFixture(t)
	provider := &flakySessionProvider{failures: 10, userID: "user-1"}
	bridge := services.NewSessionBridge(manager, bus, provider)
	fastBackoff(bridge)

	err := bridge.Start(context.Background())
	assert.EqualError(t, err, "identity provider unreachable")
	assert.Equal(t, 3, provider.calls)
	bridge.Stop()
}

func TestSessionBridge_StopDetaches(t *testing.T) {
	manager, bus, _ := bridgeFixture(t)
	bridge := services.NewSessionBridge(manager, bus, nil)
	assert.NoError(t, bridge.Start(context.Background()))
	bridge.Stop()

	bus.PublishAuth(events.AuthEvent{Kind: events.AuthSignedIn, UserID: "user-1"})
	assert.Empty(t, manager.For("user-1").Cart.Snapshot().Lines)
}
