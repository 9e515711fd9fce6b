package table

import (
	"metacurate/curation"
)

// FilterVariant is the kind of filter UI a column offers.
type FilterVariant string

const (
	VariantText         FilterVariant = "text"
	VariantNumeric      FilterVariant = "numeric"
	VariantAutocomplete FilterVariant = "autocomplete"
	VariantNone         FilterVariant = "none"
)

// ColumnDescriptor describes a column of the curation table.
type ColumnDescriptor struct {
	ID            string              `json:"id"`
	Label         string              `json:"label"`
	FilterVariant FilterVariant       `json:"filterVariant"`
	Sortable      bool                `json:"sortable"`
	SortKind      SortKind            `json:"sortKind,omitempty"`
	Compare       func(a, b Cell) int `json:"-"`
	Accessor      func(r Row) Cell    `json:"-"`
	Builtin       bool                `json:"builtin"`
}

func (d ColumnDescriptor) compare(a, b Cell) int {
	switch d.SortKind {
	case SortCustom:
		if d.Compare != nil {
			return d.Compare(a, b)
		}
		return compareAlphanumeric(a, b)
	case SortText:
		return compareText(a, b)
	default:
		return compareAlphanumeric(a, b)
	}
}

func stubColumn(id, label string, variant FilterVariant, kind SortKind, get func(s curation.StubStudy) Cell) ColumnDescriptor {
	return ColumnDescriptor{
		ID:            id,
		Label:         label,
		FilterVariant: variant,
		Sortable:      kind != "",
		SortKind:      kind,
		Accessor:      func(r Row) Cell { return get(r.Stub) },
		Builtin:       true,
	}
}

func compareYear(a, b Cell) int {
	na, nb := a.Numbers(), b.Numbers()
	switch {
	case len(na) == 0 && len(nb) == 0:
		return 0
	case len(na) == 0:
		return -1
	case len(nb) == 0:
		return 1
	case na[0] < nb[0]:
		return -1
	case na[0] > nb[0]:
		return 1
	}
	return 0
}

// BuiltinColumns are always present and cannot be removed.
func BuiltinColumns() []ColumnDescriptor {
	year := stubColumn("articleYear", "Year", VariantNumeric, SortCustom, func(s curation.StubStudy) Cell { return Scalar(s.ArticleYear) })
	year.Compare = compareYear
	return []ColumnDescriptor{
		stubColumn("title", "Title", VariantText, SortText, func(s curation.StubStudy) Cell { return Scalar(s.Title) }),
		stubColumn("authors", "Authors", VariantText, SortText, func(s curation.StubStudy) Cell { return Scalar(s.Authors) }),
		year,
		stubColumn("journal", "Journal", VariantText, SortText, func(s curation.StubStudy) Cell { return Scalar(s.Journal) }),
		stubColumn("pmid", "PMID", VariantText, SortAlphanumeric, func(s curation.StubStudy) Cell { return Scalar(s.PMID) }),
		stubColumn("doi", "DOI", VariantText, SortAlphanumeric, func(s curation.StubStudy) Cell { return Scalar(s.DOI) }),
		stubColumn("source", "Source", VariantAutocomplete, SortText, func(s curation.StubStudy) Cell { return Scalar(s.IdentificationSource.Label) }),
		stubColumn("tags", "Tags", VariantAutocomplete, "", func(s curation.StubStudy) Cell {
			labels := make([]any, 0, len(s.Tags))
			for _, t := range s.Tags {
				labels = append(labels, t.Label)
			}
			return List(labels...)
		}),
		stubColumn("exclusion", "Exclusion", VariantAutocomplete, SortText, func(s curation.StubStudy) Cell {
			if s.ExclusionTag == nil {
				return Cell{}
			}
			return Scalar(s.ExclusionTag.Label)
		}),
	}
}
