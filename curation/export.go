package curation

import (
	"fmt"
	"io"
	"strings"
)

// CSVHeader ist die Kopfzeile des CSV-Exports.
var CSVHeader = []string{
	"Title", "Authors", "PMID", "PMCID", "DOI", "Year", "Journal", "Link",
	"Source", "Status", "Exclusion", "Tags", "Neurostore ID",
}

func tagLabels(tags []Tag, sep string) string {
	labels := make([]string, 0, len(tags))
	for _, t := range tags {
		labels = append(labels, t.Label)
	}
	return strings.Join(labels, sep)
}

// quoteCSV setzt jeden Wert in Anführungszeichen und verdoppelt enthaltene Anführungszeichen.
func quoteCSV(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

func csvRecord(stub StubStudy, status string) []string {
	exclusion := ""
	if stub.ExclusionTag != nil {
		exclusion = stub.ExclusionTag.Label
	}
	return []string{
		stub.Title, stub.Authors, stub.PMID, stub.PMCID, stub.DOI, stub.ArticleYear,
		stub.Journal, stub.ArticleLink, stub.IdentificationSource.Label, status,
		exclusion, tagLabels(stub.Tags, ";"), stub.NeurostoreID,
	}
}

// WriteCSV schreibt die Stubs aller Spalten, in Spalten- und Einfügereihenfolge.
func WriteCSV(w io.Writer, columns []Column) error {
	write := func(fields []string) error {
		quoted := make([]string, len(fields))
		for i, f := range fields {
			quoted[i] = quoteCSV(f)
		}
		_, err := io.WriteString(w, strings.Join(quoted, ",")+"\n")
		return err
	}
	if err := write(CSVHeader); err != nil {
		return err
	}
	for _, col := range columns {
		for _, stub := range col.StubStudies {
			if err := write(csvRecord(stub, col.Name)); err != nil {
				return err
			}
		}
	}
	return nil
}

// ExportCSV liefert den CSV-Export als String.
func ExportCSV(columns []Column) string {
	var sb strings.Builder
	_ = WriteCSV(&sb, columns)
	return sb.String()
}

var bibtexEscaper = strings.NewReplacer("_", `\textunderscore{}`)

// WriteBibTeX schreibt einen @article-Eintrag pro Stub.
func WriteBibTeX(w io.Writer, columns []Column) error {
	for _, col := range columns {
		for _, stub := range col.StubStudies {
			if _, err := io.WriteString(w, bibtexEntry(stub)); err != nil {
				return err
			}
		}
	}
	return nil
}

// ExportBibTeX liefert den BibTeX-Export als String.
func ExportBibTeX(columns []Column) string {
	var sb strings.Builder
	_ = WriteBibTeX(&sb, columns)
	return sb.String()
}

func bibtexEntry(stub StubStudy) string {
	var note []string
	if stub.PMID != "" {
		note = append(note, "PMID: "+stub.PMID)
	}
	if stub.PMCID != "" {
		note = append(note, "PMCID: "+stub.PMCID)
	}
	if stub.NeurostoreID != "" {
		note = append(note, "Neurostore ID: "+stub.NeurostoreID)
	}
	if stub.IdentificationSource.Label != "" {
		note = append(note, "Source: "+stub.IdentificationSource.Label)
	}
	if len(stub.Tags) > 0 {
		note = append(note, "Tags: "+tagLabels(stub.Tags, ", "))
	}

	fields := [][2]string{
		{"author", stub.Authors},
		{"journal", stub.Journal},
		{"doi", stub.DOI},
		{"note", strings.Join(note, "; ")},
		{"title", stub.Title},
		{"url", stub.ArticleLink},
		{"howpublished", stub.ArticleLink},
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "@article{%s,\n", bibtexEscaper.Replace(stub.ID))
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		fmt.Fprintf(&sb, "  %s = {%s},\n", f[0], bibtexEscaper.Replace(f[1]))
	}
	sb.WriteString("}\n\n")
	return sb.String()
}
