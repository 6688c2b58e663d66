package notification

import (
	"fmt"
	"time"
)

// Notification tells an order's owner that its status changed.
type Notification struct {
	UserID     int64
	OrderID    int64
	Status     string
	OrderTotal int64
}

func (n Notification) Title() string {
	switch n.Status {
	case "processing":
		return "Order accepted"
	case "cancelled":
		return "Order cancelled"
	case "shipped":
		return "Order shipped"
	case "delivered":
		return "Order delivered"
	default:
		return "Order updated"
	}
}

func (n Notification) Message() string {
	switch n.Status {
	case "processing":
		return fmt.Sprintf("Your order #%d (total %d) has been accepted and is being prepared.", n.OrderID, n.OrderTotal)
	case "cancelled":
		return fmt.Sprintf("Your order #%d (total %d) was cancelled. Check the order for details.", n.OrderID, n.OrderTotal)
	case "shipped":
		return fmt.Sprintf("Your order #%d is on its way.", n.OrderID)
	case "delivered":
		return fmt.Sprintf("Your order #%d has been delivered. Enjoy!", n.OrderID)
	default:
		return fmt.Sprintf("Your order #%d is now %s.", n.OrderID, n.Status)
	}
}

func (n Notification) Link() string {
	return fmt.Sprintf("/orders/%d", n.OrderID)
}

// InboxItem is a stored notification as the storefront reads it.
type InboxItem struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Link      string    `json:"link"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
