package order

import (
	"time"

	"pawmart-be/internal/fraud"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var AllStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

func (s Status) Valid() bool {
	for _, st := range AllStatuses {
		if s == st {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Next returns the fulfilment step that follows s. Accept and reject own
// the transitions out of pending.
func (s Status) Next() (Status, bool) {
	switch s {
	case StatusProcessing:
		return StatusShipped, true
	case StatusShipped:
		return StatusDelivered, true
	}
	return "", false
}

type Order struct {
	ID                int64       `json:"id"`
	UserID            *int64      `json:"user_id,omitempty"`
	CustomerName      string      `json:"customer_name"`
	CustomerPhone     string      `json:"customer_phone"`
	ShippingAddress   string      `json:"shipping_address"`
	City              string      `json:"city"`
	TotalAmount       int64       `json:"total_amount"`
	Status            Status      `json:"status"`
	TrackingID        *string     `json:"tracking_id,omitempty"`
	ConsignmentID     *string     `json:"consignment_id,omitempty"`
	RejectionReason   *string     `json:"rejection_reason,omitempty"`
	CheckoutSessionID *string     `json:"checkout_session_id,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
	TrashedAt         *time.Time  `json:"trashed_at,omitempty"`
	Items             []OrderItem `json:"items,omitempty"`
}

func (o *Order) Trashed() bool {
	return o.TrashedAt != nil
}

type OrderItem struct {
	ID          int64  `json:"id"`
	OrderID     int64  `json:"order_id"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Price       int64  `json:"price"`
}

// HistoryEntry is a prior order from the same phone or address.
type HistoryEntry struct {
	OrderID     int64
	Status      Status
	TotalAmount int64
	CreatedAt   time.Time
}

// TransitionRequest is applied only while the order is still in From.
type TransitionRequest struct {
	OrderID         int64
	From            Status
	To              Status
	TrackingID      *string
	ConsignmentID   *string
	RejectionReason *string
}

type AcceptInput struct {
	TrackingID    string `json:"tracking_id"`
	ConsignmentID string `json:"consignment_id"`
}

type RejectInput struct {
	Reason string `json:"reason"`
}

type PlaceOrderInput struct {
	SessionID       string           `json:"session_id"`
	CustomerName    string           `json:"customer_name"`
	CustomerPhone   string           `json:"customer_phone"`
	ShippingAddress string           `json:"shipping_address"`
	City            string           `json:"city"`
	ShippingFee     int64            `json:"shipping_fee"`
	Items           []PlaceOrderItem `json:"items"`
}

type PlaceOrderItem struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Price       int64  `json:"price"`
}

type ListFilter struct {
	Statuses []Status
	Search   string
	Trashed  bool
	DateFrom *time.Time
	DateTo   *time.Time
	UserID   *int64
	Limit    int
	Page     int

	// IncludeRisk scores every listed order; one history query per row.
	IncludeRisk bool
}

type OrderReview struct {
	Order *Order          `json:"order"`
	Risk  *fraud.Analysis `json:"risk,omitempty"`
}

type OrderPage struct {
	Items []OrderReview `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}
