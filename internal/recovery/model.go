package recovery

import "time"

// Draft is a checkout form the customer has not submitted yet.
type Draft struct {
	SessionID       string      `json:"session_id"`
	CustomerName    string      `json:"customer_name"`
	CustomerPhone   string      `json:"customer_phone"`
	ShippingAddress string      `json:"shipping_address"`
	Items           []DraftItem `json:"items"`
	TotalAmount     int64       `json:"total_amount"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

type DraftItem struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Price       int64  `json:"price"`
}

// Trackable reports whether the draft carries enough to follow up on.
func (d Draft) Trackable() bool {
	return d.SessionID != "" && d.CustomerPhone != "" && len(d.Items) > 0
}

// IncompleteOrder is a stored draft as the admin sees it.
type IncompleteOrder struct {
	Draft
	ConvertedOrderID *int64    `json:"converted_order_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
