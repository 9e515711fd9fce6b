package curation

import (
	"strings"
	"unicode"
)

// NormalizeDOI entfernt URL-Präfixe und vereinheitlicht die Schreibweise.
func NormalizeDOI(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimPrefix(s, "https://doi.org/")
	s = strings.TrimPrefix(s, "http://doi.org/")
	s = strings.TrimPrefix(s, "doi:")
	return strings.TrimSpace(s)
}

// NormalizePMID extrahiert nur die Ziffern.
func NormalizePMID(s string) string {
	var out strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			out.WriteRune(r)
		}
	}
	return out.String()
}

func normalizeTitle(s string) string {
	var out strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			out.WriteRune(r)
		}
	}
	return out.String()
}

func identityKeys(s StubStudy) []string {
	var keys []string
	if p := NormalizePMID(s.PMID); p != "" {
		keys = append(keys, "pmid:"+p)
	}
	if d := NormalizeDOI(s.DOI); d != "" {
		keys = append(keys, "doi:"+d)
	}
	if t := normalizeTitle(s.Title); t != "" {
		keys = append(keys, "title:"+t)
	}
	return keys
}

// FlagDuplicates markiert eingehende Stubs, die per PMID, DOI oder Titel bereits
// vorhanden sind (auch innerhalb des Batches), mit dem Duplikat-Tag.
// Zurückgegeben wird die Anzahl markierter Stubs.
func FlagDuplicates(existing []StubStudy, incoming []StubStudy, dup Tag) int {
	seen := make(map[string]bool)
	for _, s := range existing {
		for _, k := range identityKeys(s) {
			seen[k] = true
		}
	}
	flagged := 0
	for i := range incoming {
		keys := identityKeys(incoming[i])
		isDup := false
		for _, k := range keys {
			if seen[k] {
				isDup = true
				break
			}
		}
		if isDup && incoming[i].ExclusionTag == nil {
			t := dup
			incoming[i].ExclusionTag = &t
			flagged++
			continue
		}
		for _, k := range keys {
			seen[k] = true
		}
	}
	return flagged
}

// AllStubs liefert alle Stubs in Spalten- und Einfügereihenfolge.
func (s *State) AllStubs() []StubStudy {
	out := make([]StubStudy, 0, s.StubCount())
	for _, c := range s.Columns {
		out = append(out, c.StubStudies...)
	}
	return out
}
