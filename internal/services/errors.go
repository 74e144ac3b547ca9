package services

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned by every cart and checkout operation
// invoked without a signed-in user. No network call is made in that case;
// the caller should prompt for sign-in.
var ErrNotAuthenticated = errors.New("not authenticated: please sign in to use the cart")

// ErrEmptyCart is returned by checkout when the cart has no lines.
var ErrEmptyCart = errors.New("empty cart")

// RejectionError is a validation rejection (inactive product, insufficient
// stock, bad quantity). It is user-facing and never retried automatically.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return e.Reason
}

// StoreError is a transient remote-store failure (network, timeout, server
// error). It is surfaced to the caller, which may resubmit the operation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// PartialCheckoutError reports a checkout that persisted the order header
// but failed to persist (all of) its lines. The order is left in a failed
// status and the cart is preserved so the user keeps their contents.
type PartialCheckoutError struct {
	OrderID     string
	OrderNumber string
	Err         error
}

func (e *PartialCheckoutError) Error() string {
	return fmt.Sprintf("checkout failed after order %s was created: order lines were not persisted: %v", e.OrderID, e.Err)
}

func (e *PartialCheckoutError) Unwrap() error {
	return e.Err
}
