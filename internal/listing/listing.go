// Package listing holds the search, sort and filter operations the console
// applies to collections already fetched from upstream.
package listing

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"threatconsole/internal/risk"
)

// Search keeps the items where any field contains term, ignoring case.
// A blank term returns items unchanged.
func Search[T any](items []T, term string, fields ...func(T) string) []T {
	if strings.TrimSpace(term) == "" {
		return items
	}
	needle := strings.ToLower(term)
	out := make([]T, 0, len(items))
	for _, it := range items {
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f(it)), needle) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

func ParseOrder(s string) Order {
	if strings.EqualFold(s, string(Desc)) {
		return Desc
	}
	return Asc
}

func (o Order) Flip() Order {
	if o == Asc {
		return Desc
	}
	return Asc
}

// SortState is the column/direction a table is currently sorted by.
type SortState struct {
	Field string
	Order Order
}

// Toggle selects field: the same field again flips direction, a new field
// starts ascending.
func (s SortState) Toggle(field string) SortState {
	if s.Field == field {
		return SortState{Field: field, Order: s.Order.Flip()}
	}
	return SortState{Field: field, Order: Asc}
}

// Collation compares strings the way a reader of the configured language
// expects them ordered.
type Collation struct {
	tag language.Tag
}

// NewCollation parses a BCP 47 tag such as "en" or "de-CH"; an invalid tag
// falls back to English.
func NewCollation(lang string) Collation {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	return Collation{tag: tag}
}

func (c Collation) Tag() language.Tag {
	return c.tag
}

// Sort returns a stably sorted copy of items. Items with equal keys keep
// their relative order in both directions.
func Sort[T any](c Collation, items []T, key func(T) string, order Order) []T {
	out := make([]T, len(items))
	copy(out, items)
	// collate.Collator is not safe for concurrent use, so each call owns one.
	col := collate.New(c.tag)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := key(out[i]), key(out[j])
		if order == Desc {
			return col.CompareString(b, a) < 0
		}
		return col.CompareString(a, b) < 0
	})
	return out
}

// Filter is the suspicious/normal activity selector.
type Filter string

const (
	FilterAll        Filter = "all"
	FilterSuspicious Filter = "suspicious"
	FilterNormal     Filter = "normal"
)

func ParseFilter(s string) Filter {
	switch Filter(strings.ToLower(s)) {
	case FilterSuspicious:
		return FilterSuspicious
	case FilterNormal:
		return FilterNormal
	default:
		return FilterAll
	}
}

// ByRisk applies f using score to read each item's risk.
func ByRisk[T any](items []T, f Filter, score func(T) float64) []T {
	if f == FilterAll {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if risk.Suspicious(score(it)) == (f == FilterSuspicious) {
			out = append(out, it)
		}
	}
	return out
}

// Tally counts suspicious and normal items.
func Tally[T any](items []T, score func(T) float64) (suspicious, normal int) {
	for _, it := range items {
		if risk.Suspicious(score(it)) {
			suspicious++
		} else {
			normal++
		}
	}
	return suspicious, normal
}
