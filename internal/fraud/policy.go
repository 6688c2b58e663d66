package fraud

import "time"

// Score breakpoints: low < MediumScore <= medium < HighScore <= high.
const (
	MediumScore = 20
	HighScore   = 40
)

// Address policy.
const (
	MinAddressLength   = 10
	WeightShortAddress = 20
	WeightVagueAddress = 15
)

// Phone policy. Lengths count digits after normalization.
const (
	MinPhoneDigits        = 10
	MaxPhoneDigits        = 15
	MinRepeatedDigitRun   = 7
	WeightMalformedPhone  = 25
	WeightSuspiciousPhone = 20
)

// Name policy.
const (
	MinNameLetters       = 3
	WeightSuspiciousName = 15
)

// History policy.
const (
	RepeatCancelThreshold = 3
	WeightRepeatCancel    = 30
	WeightCancelRatio     = 10

	VelocityWindow    = time.Hour
	VelocityThreshold = 2
	WeightVelocity    = 20
)

// Amount policy, in whole currency units.
const (
	AmountCeiling          = 50000
	AmountAverageMultiple  = 3
	MinHistoryForAverage   = 2
	WeightAmountCeiling    = 25
	WeightAmountAboveUsual = 15
)

var placeholderAddresses = map[string]struct{}{
	"test":          {},
	"testing":       {},
	"test address":  {},
	"n/a":           {},
	"na":            {},
	"none":          {},
	"asdf":          {},
	"home":          {},
	"address":       {},
	"my address":    {},
	"same as above": {},
	"not available": {},
	"unknown":       {},
}

var placeholderNames = map[string]struct{}{
	"test":     {},
	"testing":  {},
	"tester":   {},
	"abc":      {},
	"asdf":     {},
	"qwerty":   {},
	"xxx":      {},
	"demo":     {},
	"user":     {},
	"customer": {},
	"name":     {},
	"unknown":  {},
	"n/a":      {},
}

var sequentialPhones = []string{
	"0123456789",
	"1234567890",
	"9876543210",
	"0987654321",
}
