package models

import "time"

// CartRow is the persisted cart entry for one product in one user's cart.
// The (UserID, ProductID) pair is the upsert conflict key: a second add for
// the same product overwrites the quantity instead of inserting a duplicate.
type CartRow struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"uniqueIndex:idx_cart_user_product;type:varchar(36)"`
	ProductID string    `json:"product_id" gorm:"uniqueIndex:idx_cart_user_product;type:varchar(36)"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartLine is one product's entry in the in-memory cart cache, joined with
// the product data captured at the last sync.
type CartLine struct {
	ProductID      string  `json:"product_id"`
	Name           string  `json:"name"`
	UnitPrice      float64 `json:"unit_price"`
	Quantity       int     `json:"quantity"`
	StockAvailable int     `json:"stock_available"`
	Unit           string  `json:"unit"`
	ImageURL       string  `json:"image_url"`
	Active         bool    `json:"active"`
}

// Subtotal returns the line's price contribution to the cart total.
func (l CartLine) Subtotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// CartView is the read-only projection of the cart cache handed to the UI
// layer. Count and Total are always folded from Lines when the view is built.
type CartView struct {
	Lines []CartLine `json:"lines"`
	Count int        `json:"count"`
	Total float64    `json:"total"`
}

// NewCartView folds lines into a view, recomputing the derived totals.
func NewCartView(lines []CartLine) CartView {
	view := CartView{Lines: lines}
	if view.Lines == nil {
		view.Lines = []CartLine{}
	}
	for _, line := range view.Lines {
		view.Count += line.Quantity
		view.Total += line.Subtotal()
	}
	return view
}
