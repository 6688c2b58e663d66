// Package fraud scores orders for manual review. Every function here is pure:
// the same order and history always produce the same Analysis, so callers
// may run it from any number of goroutines without coordination.
package fraud

import "strings"

type Analyzer struct {
	extractors []Extractor
}

func NewAnalyzer(extractors ...Extractor) *Analyzer {
	if len(extractors) == 0 {
		extractors = DefaultExtractors()
	}
	return &Analyzer{extractors: extractors}
}

var defaultAnalyzer = NewAnalyzer()

// Analyze scores o with the default extractors.
func Analyze(o Order, history []HistoryEntry) Analysis {
	return defaultAnalyzer.Analyze(o, history)
}

func (a *Analyzer) Analyze(o Order, history []HistoryEntry) Analysis {
	signals := make([]Signal, 0, len(a.extractors))
	score := 0

	for _, extract := range a.extractors {
		s := extract(o, history)
		if s == nil {
			continue
		}
		signals = append(signals, *s)
		score += s.Weight
	}

	level := LevelFor(score)

	return Analysis{
		Score:          score,
		Level:          level,
		Signals:        signals,
		Recommendation: recommend(level, signals),
	}
}

// LevelFor maps a score onto the fixed breakpoints.
func LevelFor(score int) Level {
	switch {
	case score >= HighScore:
		return LevelHigh
	case score >= MediumScore:
		return LevelMedium
	default:
		return LevelLow
	}
}

var categoryActions = []struct {
	categories []Category
	action     string
}{
	{[]Category{CategoryAddress}, "verify the delivery address by phone"},
	{[]Category{CategoryPhone}, "confirm the phone number before dispatch"},
	{[]Category{CategoryName}, "confirm the customer's full name"},
	{[]Category{CategoryRepeat, CategoryCancel}, "request advance payment"},
	{[]Category{CategoryVelocity}, "check for duplicate orders"},
	{[]Category{CategoryAmount}, "confirm the order value with the customer"},
}

func recommend(level Level, signals []Signal) string {
	fired := make(map[Category]bool, len(signals))
	for _, s := range signals {
		fired[s.Category] = true
	}

	var actions []string
	for _, ca := range categoryActions {
		for _, c := range ca.categories {
			if fired[c] {
				actions = append(actions, ca.action)
				break
			}
		}
	}

	if len(actions) == 0 && level != LevelLow {
		actions = append(actions, "review the order manually")
	}

	switch level {
	case LevelHigh:
		actions = append(actions, "reject if the customer cannot be reached")
		return "High risk: " + strings.Join(actions, "; ") + "."
	case LevelMedium:
		return "Medium risk: " + strings.Join(actions, "; ") + "."
	default:
		if len(actions) == 0 {
			return "Low risk: safe to accept."
		}
		return "Low risk: " + strings.Join(actions, "; ") + "."
	}
}
