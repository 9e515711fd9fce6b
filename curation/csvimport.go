package curation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ParseCSV liest Stubs aus einer CSV-Datei im Exportformat. Die Spalten werden über die
// Kopfzeile zugeordnet; unbekannte Spalten werden ignoriert. Status, Exclusion, Tags und
// Neurostore ID werden nicht übernommen, ein Import startet immer unkategorisiert.
func ParseCSV(r io.Reader) ([]StubStudy, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv is empty")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := idx["title"]; !ok {
		return nil, fmt.Errorf("csv header has no Title column")
	}
	get := func(rec []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var stubs []StubStudy
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		stub := StubStudy{
			Title:       get(rec, "title"),
			Authors:     get(rec, "authors"),
			PMID:        get(rec, "pmid"),
			PMCID:       get(rec, "pmcid"),
			DOI:         get(rec, "doi"),
			ArticleYear: get(rec, "year"),
			Journal:     get(rec, "journal"),
			ArticleLink: get(rec, "link"),
			Tags:        []Tag{},
		}
		if src := get(rec, "source"); src != "" {
			stub.IdentificationSource = Source{ID: strings.ToLower(src), Label: src}
		}
		if stub.Title == "" && stub.PMID == "" && stub.DOI == "" {
			continue
		}
		stubs = append(stubs, stub)
	}
	return stubs, nil
}
