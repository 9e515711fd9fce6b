package table

import (
	"fmt"
	"sort"
	"strings"
)

// ExtractionColumnID builds the column id of an extracted field; subKey is empty for flat fields.
func ExtractionColumnID(extractor, field, subKey string) string {
	if subKey == "" {
		return extractor + "." + field
	}
	return extractor + "." + field + "." + subKey
}

func extractionAccessor(extractor, field, subKey string) func(Row) Cell {
	return func(r Row) Cell {
		payload, ok := r.Extractions[extractor]
		if !ok {
			return Cell{}
		}
		v, ok := payload[field]
		if !ok || v == nil {
			return Cell{}
		}
		arr, isArr := v.([]any)
		if subKey == "" {
			if isArr {
				return List(arr...)
			}
			return Scalar(v)
		}
		if !isArr {
			return Cell{}
		}
		var pairs []KeyValue
		for i, elem := range arr {
			obj, ok := elem.(map[string]any)
			if !ok {
				continue
			}
			val, ok := obj[subKey]
			if !ok || val == nil {
				continue
			}
			pairs = append(pairs, KeyValue{Key: fmt.Sprintf("%s %d", field, i+1), Value: val})
		}
		return Pairs(pairs...)
	}
}

type fieldShape struct {
	numeric bool
	seen    bool
	list    bool
	subKeys map[string]bool
}

// ExtractionColumns derives column descriptors from the extraction payloads present in rows.
// Arrays of objects (per-task, per-group values) produce one column per object key.
func ExtractionColumns(rows []Row) []ColumnDescriptor {
	shapes := make(map[string]map[string]*fieldShape)
	for _, r := range rows {
		for extractor, payload := range r.Extractions {
			if shapes[extractor] == nil {
				shapes[extractor] = make(map[string]*fieldShape)
			}
			for field, v := range payload {
				sh := shapes[extractor][field]
				if sh == nil {
					sh = &fieldShape{numeric: true, subKeys: map[string]bool{}}
					shapes[extractor][field] = sh
				}
				observe(sh, v)
			}
		}
	}

	var out []ColumnDescriptor
	for _, extractor := range sortedKeys(shapes) {
		fields := shapes[extractor]
		for _, field := range sortedKeys(fields) {
			sh := fields[field]
			if len(sh.subKeys) > 0 {
				for _, sub := range sortedKeys(sh.subKeys) {
					out = append(out, ColumnDescriptor{
						ID:            ExtractionColumnID(extractor, field, sub),
						Label:         fmt.Sprintf("%s: %s", field, sub),
						FilterVariant: VariantAutocomplete,
						Sortable:      true,
						SortKind:      SortAlphanumeric,
						Accessor:      extractionAccessor(extractor, field, sub),
					})
				}
				continue
			}
			variant := VariantAutocomplete
			if sh.seen && sh.numeric && !sh.list {
				variant = VariantNumeric
			}
			out = append(out, ColumnDescriptor{
				ID:            ExtractionColumnID(extractor, field, ""),
				Label:         field,
				FilterVariant: variant,
				Sortable:      true,
				SortKind:      SortAlphanumeric,
				Accessor:      extractionAccessor(extractor, field, ""),
			})
		}
	}
	return out
}

func observe(sh *fieldShape, v any) {
	switch t := v.(type) {
	case nil:
	case []any:
		sh.list = true
		for _, elem := range t {
			if obj, ok := elem.(map[string]any); ok {
				for k := range obj {
					sh.subKeys[k] = true
				}
			}
		}
	case float64, int:
		sh.seen = true
	default:
		sh.seen = true
		if s, ok := t.(string); !ok || !looksNumeric(s) {
			sh.numeric = false
		}
	}
}

func looksNumeric(s string) bool {
	_, ok := toFloat(strings.TrimSpace(s))
	return ok
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
