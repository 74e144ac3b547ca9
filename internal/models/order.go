package models

import "time"

// Order statuses used by this subsystem. Fulfillment transitions
// (processing, shipped, delivered) belong to order management.
const (
	OrderStatusPending = "pending"
	// OrderStatusFailed marks a header whose line insertion failed partway.
	// Such an order must never be treated as placeable work.
	OrderStatusFailed = "failed"
)

// OrderItem represents a single line within a placed order. UnitPrice and
// Quantity are copied from the cart at order time and never change after,
// so later catalog price edits cannot alter a placed order.
type OrderItem struct {
	ID         uint    `json:"-" gorm:"primaryKey"`
	OrderID    string  `json:"order_id" gorm:"index;type:varchar(36)"`
	ProductID  string  `json:"product_id" gorm:"type:varchar(36)"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
}

// Order represents a customer order header.
type Order struct {
	ID              string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderNumber     string      `json:"order_number" gorm:"uniqueIndex;type:varchar(32)"`
	UserID          string      `json:"user_id" gorm:"index;type:varchar(36)"`
	Items           []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	TotalAmount     float64     `json:"total_amount"`
	ShippingAddress string      `json:"shipping_address"`
	Phone           string      `json:"phone"`
	Notes           string      `json:"notes"`
	Status          string      `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}
