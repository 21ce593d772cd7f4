package model

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusInProgress OrderStatus = "In Progress"
	OrderStatusCompleted  OrderStatus = "Completed"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// Order is a single placed order. Exactly one of UserID / KeyID is set
// depending on which path created it. OrderID is the human-shown
// identifier (a ULID); ID is the row key.
type Order struct {
	ID        string
	OrderID   string
	UserID    *string
	KeyID     *string
	ServiceID string
	Link      string
	Quantity  int
	// Charge is price * quantity rounded to two decimals, stored as a
	// decimal string.
	Charge string
	Status OrderStatus
	// Delivery telemetry, filled in by reconciliation once the upstream
	// panel starts working the order.
	StartCount      *int
	Remains         *int
	ExternalOrderID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
