package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order status lifecycle: PENDING -> PROCESSING -> SHIPPED -> DELIVERED, with
// CANCELLED reachable from any non-terminal state.
const (
	OrderStatusPending    = "PENDING"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusShipped    = "SHIPPED"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
)

// OrderStatusValid reports whether s is a known lifecycle status.
func OrderStatusValid(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is created only by a successful checkout commit. Line items are
// immutable afterwards; cancellation is a status transition, not a deletion.
type Order struct {
	ID          int64           `gorm:"primaryKey" json:"id,string"`
	CustomerID  int64           `gorm:"index;not null" json:"customer_id,string"`
	OrderNumber string          `gorm:"size:32;uniqueIndex;not null" json:"order_number"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Status      string          `gorm:"size:20;index;not null" json:"status"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName Specify table name
func (Order) TableName() string {
	return "orders"
}

// OrderItem references the purchased variant and snapshots its unit price at
// purchase time; Subtotal is always UnitPrice * Quantity.
type OrderItem struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id,string"`
	OrderID   int64           `gorm:"index;not null" json:"order_id,string"`
	ProductID int64           `gorm:"index;not null" json:"product_id,string"`
	VariantID int64           `gorm:"index;not null" json:"variant_id,string"`
	Quantity  int64           `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	CreatedAt time.Time       `json:"created_at"`
}

// TableName Specify table name
func (OrderItem) TableName() string {
	return "order_items"
}
