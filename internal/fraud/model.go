package fraud

import "time"

type Category string

const (
	CategoryAddress  Category = "address"
	CategoryPhone    Category = "phone"
	CategoryName     Category = "name"
	CategoryRepeat   Category = "repeat"
	CategoryCancel   Category = "cancel"
	CategoryVelocity Category = "velocity"
	CategoryAmount   Category = "amount"
)

type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Signal is a single detected risk indicator. Extractors build a fresh value
// per call and nothing mutates it afterwards.
type Signal struct {
	ID          string   `json:"id"`
	Category    Category `json:"category"`
	Label       string   `json:"label"`
	Weight      int      `json:"weight"`
	Description string   `json:"description"`
}

// Analysis is a view over an order and its customer history. It is
// recomputed on demand and never stored.
type Analysis struct {
	Score          int      `json:"score"`
	Level          Level    `json:"level"`
	Signals        []Signal `json:"signals"`
	Recommendation string   `json:"recommendation"`
}

// Has reports whether a signal of the given category fired.
func (a Analysis) Has(c Category) bool {
	for _, s := range a.Signals {
		if s.Category == c {
			return true
		}
	}
	return false
}

// Order is the read-only snapshot the extractors inspect.
type Order struct {
	ID              int64
	CustomerName    string
	CustomerPhone   string
	ShippingAddress string
	TotalAmount     int64
	CreatedAt       time.Time
}

// HistoryEntry is one prior order placed from the same phone or address.
type HistoryEntry struct {
	OrderID     int64
	Cancelled   bool
	TotalAmount int64
	CreatedAt   time.Time
}
