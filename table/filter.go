package table

import (
	"fmt"
	"strings"
)

// FilterKind is the closed set of filters a column can carry.
type FilterKind string

const (
	FilterText         FilterKind = "text"
	FilterNumericRange FilterKind = "numeric"
	FilterAutocomplete FilterKind = "autocomplete"
)

// ColumnFilter is an active filter on one column. Only the fields of its Kind are used.
type ColumnFilter struct {
	ID     string     `json:"id"`
	Kind   FilterKind `json:"kind"`
	Text   string     `json:"text,omitempty"`
	Min    *float64   `json:"min,omitempty"`
	Max    *float64   `json:"max,omitempty"`
	Tokens []string   `json:"tokens,omitempty"`
}

// Validate checks that the filter kind fits the column's filter variant.
func (f ColumnFilter) Validate(variant FilterVariant) error {
	var want FilterVariant
	switch f.Kind {
	case FilterText:
		want = VariantText
	case FilterNumericRange:
		want = VariantNumeric
		if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
			return fmt.Errorf("filter %s: min %v greater than max %v", f.ID, *f.Min, *f.Max)
		}
	case FilterAutocomplete:
		want = VariantAutocomplete
	default:
		return fmt.Errorf("filter %s: unknown kind %q", f.ID, f.Kind)
	}
	if variant != want {
		return fmt.Errorf("filter %s: column is %q, filter is %q", f.ID, variant, f.Kind)
	}
	return nil
}

// IsEmpty reports whether the filter has nothing to filter on.
func (f ColumnFilter) IsEmpty() bool {
	switch f.Kind {
	case FilterText:
		return strings.TrimSpace(f.Text) == ""
	case FilterNumericRange:
		return f.Min == nil && f.Max == nil
	case FilterAutocomplete:
		return len(f.Tokens) == 0
	}
	return true
}

// Matches dispatches to the predicate of the filter kind.
func (f ColumnFilter) Matches(c Cell) bool {
	if f.IsEmpty() {
		return true
	}
	switch f.Kind {
	case FilterText:
		return matchText(c, f.Text)
	case FilterNumericRange:
		return matchRange(c, f.Min, f.Max)
	case FilterAutocomplete:
		return matchAllTokens(c, f.Tokens)
	}
	return true
}

// matchText is a case-insensitive substring match on the rendered cell.
func matchText(c Cell, query string) bool {
	return strings.Contains(strings.ToLower(c.String()), strings.ToLower(strings.TrimSpace(query)))
}

// matchRange accepts a cell when any of its numbers lies in [min, max].
func matchRange(c Cell, min, max *float64) bool {
	for _, n := range c.Numbers() {
		if min != nil && n < *min {
			continue
		}
		if max != nil && n > *max {
			continue
		}
		return true
	}
	return false
}

// matchAllTokens requires every selected token in the flattened cell.
func matchAllTokens(c Cell, tokens []string) bool {
	have := c.Tokens()
	for _, t := range tokens {
		if _, ok := have[strings.ToLower(strings.TrimSpace(t))]; !ok {
			return false
		}
	}
	return true
}
