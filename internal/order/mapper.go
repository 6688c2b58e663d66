package order

import "pawmart-be/internal/fraud"

func toFraudOrder(o *Order) fraud.Order {
	return fraud.Order{
		ID:              o.ID,
		CustomerName:    o.CustomerName,
		CustomerPhone:   o.CustomerPhone,
		ShippingAddress: o.ShippingAddress,
		TotalAmount:     o.TotalAmount,
		CreatedAt:       o.CreatedAt,
	}
}

func toFraudHistory(history []HistoryEntry) []fraud.HistoryEntry {
	out := make([]fraud.HistoryEntry, 0, len(history))
	for _, h := range history {
		out = append(out, fraud.HistoryEntry{
			OrderID:     h.OrderID,
			Cancelled:   h.Status == StatusCancelled,
			TotalAmount: h.TotalAmount,
			CreatedAt:   h.CreatedAt,
		})
	}
	return out
}
