package fraud

import (
	"fmt"
	"strings"
	"unicode"
)

// Extractor inspects one dimension of an order. A nil result means the
// dimension looks fine; extractors never return errors.
type Extractor func(o Order, history []HistoryEntry) *Signal

// DefaultExtractors returns the extractors in the order their signals are
// reported.
func DefaultExtractors() []Extractor {
	return []Extractor{
		AddressSignal,
		PhoneSignal,
		NameSignal,
		RepeatCancellationSignal,
		CancellationRatioSignal,
		VelocitySignal,
		AmountSignal,
	}
}

func AddressSignal(o Order, _ []HistoryEntry) *Signal {
	addr := strings.TrimSpace(o.ShippingAddress)

	if len([]rune(addr)) < MinAddressLength {
		return &Signal{
			ID:          "address_too_short",
			Category:    CategoryAddress,
			Label:       "Address too short",
			Weight:      WeightShortAddress,
			Description: fmt.Sprintf("Shipping address has fewer than %d characters", MinAddressLength),
		}
	}

	if _, ok := placeholderAddresses[strings.ToLower(addr)]; ok {
		return vagueAddress("Shipping address looks like a placeholder")
	}

	if len(strings.Fields(addr)) < 2 && !strings.ContainsFunc(addr, unicode.IsDigit) {
		return vagueAddress("Shipping address has no house, road or area details")
	}

	return nil
}

func vagueAddress(desc string) *Signal {
	return &Signal{
		ID:          "address_vague",
		Category:    CategoryAddress,
		Label:       "Vague address",
		Weight:      WeightVagueAddress,
		Description: desc,
	}
}

func PhoneSignal(o Order, _ []HistoryEntry) *Signal {
	digits, ok := NormalizePhone(o.CustomerPhone)
	if !ok || len(digits) < MinPhoneDigits || len(digits) > MaxPhoneDigits {
		return &Signal{
			ID:          "phone_malformed",
			Category:    CategoryPhone,
			Label:       "Invalid phone number",
			Weight:      WeightMalformedPhone,
			Description: fmt.Sprintf("Phone number must have %d to %d digits", MinPhoneDigits, MaxPhoneDigits),
		}
	}

	if longestRun(digits) >= MinRepeatedDigitRun || isSequential(digits) {
		return &Signal{
			ID:          "phone_suspicious",
			Category:    CategoryPhone,
			Label:       "Suspicious phone number",
			Weight:      WeightSuspiciousPhone,
			Description: "Phone number follows a repeated or sequential pattern",
		}
	}

	return nil
}

// NormalizePhone strips the separators customers usually type and reports
// whether only digits were left.
func NormalizePhone(phone string) (string, bool) {
	var b strings.Builder
	for i, r := range strings.TrimSpace(phone) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
		case r == ' ', r == '-', r == '.', r == '(', r == ')':
		default:
			return "", false
		}
	}
	return b.String(), b.Len() > 0
}

// longestRun reports the longest stretch of one repeated digit anywhere in
// digits.
func longestRun(digits string) int {
	best, n := 0, 0
	for i := 0; i < len(digits); i++ {
		if i > 0 && digits[i] == digits[i-1] {
			n++
		} else {
			n = 1
		}
		if n > best {
			best = n
		}
	}
	return best
}

func isSequential(digits string) bool {
	for _, seq := range sequentialPhones {
		if strings.Contains(digits, seq) {
			return true
		}
	}
	return false
}

func NameSignal(o Order, _ []HistoryEntry) *Signal {
	name := strings.TrimSpace(o.CustomerName)
	lower := strings.ToLower(name)

	var reason string
	switch {
	case countLetters(name) < MinNameLetters:
		reason = fmt.Sprintf("Name has fewer than %d letters", MinNameLetters)
	case isPlaceholderName(lower):
		reason = "Name looks like a placeholder"
	case isRepeatedChar(lower):
		reason = "Name is a single repeated character"
	case strings.ContainsFunc(name, unicode.IsDigit):
		reason = "Name contains digits"
	default:
		return nil
	}

	return &Signal{
		ID:          "name_suspicious",
		Category:    CategoryName,
		Label:       "Suspicious name",
		Weight:      WeightSuspiciousName,
		Description: reason,
	}
}

func countLetters(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}

func isPlaceholderName(lower string) bool {
	if _, ok := placeholderNames[lower]; ok {
		return true
	}
	// "test user", "demo customer"
	for _, f := range strings.Fields(lower) {
		if f == "test" || f == "demo" {
			return true
		}
	}
	return false
}

func isRepeatedChar(lower string) bool {
	compact := strings.Join(strings.Fields(lower), "")
	if compact == "" {
		return false
	}
	first := []rune(compact)[0]
	for _, r := range compact {
		if r != first {
			return false
		}
	}
	return true
}

func RepeatCancellationSignal(o Order, history []HistoryEntry) *Signal {
	cancelled := countCancelled(priorTo(o, history))
	if cancelled < RepeatCancelThreshold {
		return nil
	}

	return &Signal{
		ID:          "repeat_cancellation",
		Category:    CategoryRepeat,
		Label:       "Repeated cancellations",
		Weight:      WeightRepeatCancel,
		Description: fmt.Sprintf("%d previous orders from this customer were cancelled", cancelled),
	}
}

// CancellationRatioSignal covers customers below the repeat threshold whose
// history is still mostly cancellations.
func CancellationRatioSignal(o Order, history []HistoryEntry) *Signal {
	history = priorTo(o, history)
	cancelled := countCancelled(history)
	if cancelled == 0 || cancelled >= RepeatCancelThreshold {
		return nil
	}
	if cancelled*2 < len(history) {
		return nil
	}

	return &Signal{
		ID:          "cancellation_ratio",
		Category:    CategoryCancel,
		Label:       "High cancellation rate",
		Weight:      WeightCancelRatio,
		Description: fmt.Sprintf("%d of %d previous orders were cancelled", cancelled, len(history)),
	}
}

// priorTo keeps the entries placed before o. An order without a timestamp
// has not been stored yet, so all of its history counts as prior.
func priorTo(o Order, history []HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(history))
	for _, h := range history {
		if h.OrderID == o.ID {
			continue
		}
		if o.CreatedAt.IsZero() || h.CreatedAt.Before(o.CreatedAt) {
			out = append(out, h)
		}
	}
	return out
}

func countCancelled(history []HistoryEntry) int {
	n := 0
	for _, h := range history {
		if h.Cancelled {
			n++
		}
	}
	return n
}

func VelocitySignal(o Order, history []HistoryEntry) *Signal {
	windowStart := o.CreatedAt.Add(-VelocityWindow)

	recent := 0
	for _, h := range history {
		if h.OrderID == o.ID {
			continue
		}
		if !h.CreatedAt.Before(windowStart) && !h.CreatedAt.After(o.CreatedAt) {
			recent++
		}
	}
	if recent < VelocityThreshold {
		return nil
	}

	return &Signal{
		ID:          "order_velocity",
		Category:    CategoryVelocity,
		Label:       "Multiple recent orders",
		Weight:      WeightVelocity,
		Description: fmt.Sprintf("%d other orders from this customer in the last %s", recent, VelocityWindow),
	}
}

func AmountSignal(o Order, history []HistoryEntry) *Signal {
	if o.TotalAmount > AmountCeiling {
		return &Signal{
			ID:          "amount_ceiling",
			Category:    CategoryAmount,
			Label:       "High order value",
			Weight:      WeightAmountCeiling,
			Description: fmt.Sprintf("Order total %d is above %d", o.TotalAmount, AmountCeiling),
		}
	}

	history = priorTo(o, history)
	if len(history) < MinHistoryForAverage {
		return nil
	}

	var sum int64
	for _, h := range history {
		sum += h.TotalAmount
	}
	n := int64(len(history))
	if o.TotalAmount*n <= AmountAverageMultiple*sum {
		return nil
	}

	return &Signal{
		ID:          "amount_above_usual",
		Category:    CategoryAmount,
		Label:       "Unusual order value",
		Weight:      WeightAmountAboveUsual,
		Description: fmt.Sprintf("Order total %d is more than %dx the customer's average of %d", o.TotalAmount, AmountAverageMultiple, sum/n),
	}
}
