// Package filter narrows loaded price and news sequences to the active
// session window and the user's news filters. All functions are pure and
// never fail; an empty result is a valid answer.
package filter

import (
	"sort"
	"strings"

	"marketviewer/internal/domain"
	"marketviewer/internal/session"
)

// All is the option that disables an impact or currency filter.
const All = "All"

// News holds the user's news filter selections.
type News struct {
	Impacts  []string // contains All, or a subset of H/M/L/N
	Currency string   // All or a currency code
}

// DefaultNews is the unfiltered selection.
func DefaultNews() News {
	return News{Impacts: []string{All}, Currency: All}
}

// Normalize fills in defaults for empty selections.
func (f News) Normalize() News {
	if len(f.Impacts) == 0 {
		f.Impacts = []string{All}
	}
	if f.Currency == "" {
		f.Currency = All
	}
	return f
}

// Key identifies the selection for caching. Impact order does not matter.
func (f News) Key() string {
	f = f.Normalize()
	impacts := append([]string(nil), f.Impacts...)
	sort.Strings(impacts)
	return strings.Join(impacts, ",") + "|" + f.Currency
}

func (f News) allImpacts() bool {
	for _, i := range f.Impacts {
		if i == All {
			return true
		}
	}
	return false
}

func (f News) matches(ev domain.NewsEvent) bool {
	if !f.allImpacts() {
		found := false
		for _, i := range f.Impacts {
			if domain.Impact(i) == ev.Impact {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return f.Currency == All || ev.Currency == f.Currency
}

// MarketSlice returns the bars whose calendar date falls inside w, in their
// input order.
func MarketSlice(bars []domain.PriceBar, w session.Window) []domain.PriceBar {
	out := make([]domain.PriceBar, 0)
	for i := range bars {
		if w.Contains(bars[i].Timestamp) {
			out = append(out, bars[i])
		}
	}
	return out
}

// NewsSlice returns the events inside w that also pass the impact and
// currency selections, in input order.
func NewsSlice(events []domain.NewsEvent, w session.Window, f News) []domain.NewsEvent {
	f = f.Normalize()
	out := make([]domain.NewsEvent, 0)
	for i := range events {
		if w.Contains(events[i].Timestamp) && f.matches(events[i]) {
			out = append(out, events[i])
		}
	}
	return out
}

// Currencies returns All followed by each distinct currency in first-seen order.
func Currencies(events []domain.NewsEvent) []string {
	seen := make(map[string]bool)
	out := []string{All}
	for _, ev := range events {
		if !seen[ev.Currency] {
			seen[ev.Currency] = true
			out = append(out, ev.Currency)
		}
	}
	return out
}

// ImpactOptions returns All followed by every impact level.
func ImpactOptions() []string {
	out := []string{All}
	for _, i := range domain.Impacts {
		out = append(out, string(i))
	}
	return out
}
