package table

import (
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKind selects the comparator of a sortable column.
type SortKind string

const (
	SortAlphanumeric SortKind = "alphanumeric"
	SortText         SortKind = "text"
	SortCustom       SortKind = "custom"
)

// SortState is one entry of the active multi-column sort.
type SortState struct {
	ID   string `json:"id"`
	Desc bool   `json:"desc"`
}

var textCollator = collate.New(language.English, collate.Loose)

// compareText is a locale-aware comparison.
func compareText(a, b Cell) int {
	return textCollator.CompareString(a.String(), b.String())
}

// compareAlphanumeric orders strings with embedded numbers naturally ("study 2" < "study 10").
func compareAlphanumeric(a, b Cell) int {
	return naturalCompare(strings.ToLower(a.String()), strings.ToLower(b.String()))
}

func naturalCompare(a, b string) int {
	ar, br := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ar) && j < len(br) {
		if unicode.IsDigit(ar[i]) && unicode.IsDigit(br[j]) {
			si := i
			for i < len(ar) && unicode.IsDigit(ar[i]) {
				i++
			}
			sj := j
			for j < len(br) && unicode.IsDigit(br[j]) {
				j++
			}
			na := strings.TrimLeft(string(ar[si:i]), "0")
			nb := strings.TrimLeft(string(br[sj:j]), "0")
			if len(na) != len(nb) {
				if len(na) < len(nb) {
					return -1
				}
				return 1
			}
			if na != nb {
				if na < nb {
					return -1
				}
				return 1
			}
			continue
		}
		if ar[i] != br[j] {
			if ar[i] < br[j] {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	switch {
	case len(ar)-i < len(br)-j:
		return -1
	case len(ar)-i > len(br)-j:
		return 1
	}
	return 0
}
