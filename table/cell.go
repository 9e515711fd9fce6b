// Package table implements the dynamic, filterable and sortable column view over stub studies,
// including columns derived from AI extraction payloads.
package table

import (
	"fmt"
	"strconv"
	"strings"

	"metacurate/curation"
)

// Row is one stub study plus the optional AI extraction payloads keyed by extractor name.
type Row struct {
	Stub        curation.StubStudy        `json:"stub"`
	Extractions map[string]map[string]any `json:"extractions,omitempty"`
}

// CellKind tags the shape of an accessor result.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellScalar
	CellList
	CellKeyValues
)

// KeyValue is a per-sub-entity value, e.g. one value per task or per group.
type KeyValue struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Cell is the value an accessor produces for a row.
type Cell struct {
	Kind   CellKind
	Scalar any
	List   []any
	Pairs  []KeyValue
}

func Scalar(v any) Cell {
	if v == nil {
		return Cell{}
	}
	if s, ok := v.(string); ok && s == "" {
		return Cell{}
	}
	return Cell{Kind: CellScalar, Scalar: v}
}

func List(vs ...any) Cell {
	if len(vs) == 0 {
		return Cell{}
	}
	return Cell{Kind: CellList, List: vs}
}

func Pairs(kvs ...KeyValue) Cell {
	if len(kvs) == 0 {
		return Cell{}
	}
	return Cell{Kind: CellKeyValues, Pairs: kvs}
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(t))
		for _, x := range t {
			parts = append(parts, stringify(x))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(t)
	}
}

// String renders the cell as display text.
func (c Cell) String() string {
	switch c.Kind {
	case CellScalar:
		return stringify(c.Scalar)
	case CellList:
		return stringify(c.List)
	case CellKeyValues:
		parts := make([]string, 0, len(c.Pairs))
		for _, kv := range c.Pairs {
			parts = append(parts, kv.Key+": "+stringify(kv.Value))
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

// Tokens flattens every representation to a set of case-folded string tokens.
func (c Cell) Tokens() map[string]struct{} {
	out := make(map[string]struct{})
	var add func(v any)
	add = func(v any) {
		switch t := v.(type) {
		case nil:
		case []any:
			for _, x := range t {
				add(x)
			}
		case []string:
			for _, x := range t {
				add(x)
			}
		case map[string]any:
			for _, x := range t {
				add(x)
			}
		default:
			s := strings.ToLower(strings.TrimSpace(stringify(t)))
			if s != "" {
				out[s] = struct{}{}
			}
		}
	}
	switch c.Kind {
	case CellScalar:
		add(c.Scalar)
	case CellList:
		add(c.List)
	case CellKeyValues:
		for _, kv := range c.Pairs {
			add(kv.Value)
		}
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

// Numbers returns all numeric values contained in the cell.
func (c Cell) Numbers() []float64 {
	var vals []any
	switch c.Kind {
	case CellScalar:
		vals = []any{c.Scalar}
	case CellList:
		vals = c.List
	case CellKeyValues:
		for _, kv := range c.Pairs {
			vals = append(vals, kv.Value)
		}
	}
	var out []float64
	for _, v := range vals {
		if f, ok := toFloat(v); ok {
			out = append(out, f)
		}
	}
	return out
}
