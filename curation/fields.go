package curation

import "fmt"

// Field benennt ein editierbares bibliographisches Feld einer Stub-Studie.
type Field string

const (
	FieldTitle        Field = "title"
	FieldAuthors      Field = "authors"
	FieldKeywords     Field = "keywords"
	FieldPMID         Field = "pmid"
	FieldPMCID        Field = "pmcid"
	FieldDOI          Field = "doi"
	FieldArticleYear  Field = "articleYear"
	FieldJournal      Field = "journal"
	FieldAbstractText Field = "abstractText"
	FieldArticleLink  Field = "articleLink"
)

type fieldAccess struct {
	get func(*StubStudy) string
	set func(*StubStudy, string)
}

var fieldTable = map[Field]fieldAccess{
	FieldTitle:        {func(s *StubStudy) string { return s.Title }, func(s *StubStudy, v string) { s.Title = v }},
	FieldAuthors:      {func(s *StubStudy) string { return s.Authors }, func(s *StubStudy, v string) { s.Authors = v }},
	FieldKeywords:     {func(s *StubStudy) string { return s.Keywords }, func(s *StubStudy, v string) { s.Keywords = v }},
	FieldPMID:         {func(s *StubStudy) string { return s.PMID }, func(s *StubStudy, v string) { s.PMID = v }},
	FieldPMCID:        {func(s *StubStudy) string { return s.PMCID }, func(s *StubStudy, v string) { s.PMCID = v }},
	FieldDOI:          {func(s *StubStudy) string { return s.DOI }, func(s *StubStudy, v string) { s.DOI = v }},
	FieldArticleYear:  {func(s *StubStudy) string { return s.ArticleYear }, func(s *StubStudy, v string) { s.ArticleYear = v }},
	FieldJournal:      {func(s *StubStudy) string { return s.Journal }, func(s *StubStudy, v string) { s.Journal = v }},
	FieldAbstractText: {func(s *StubStudy) string { return s.AbstractText }, func(s *StubStudy, v string) { s.AbstractText = v }},
	FieldArticleLink:  {func(s *StubStudy) string { return s.ArticleLink }, func(s *StubStudy, v string) { s.ArticleLink = v }},
}

// ParseField prüft einen Feldnamen gegen die bekannten Felder.
func ParseField(name string) (Field, error) {
	f := Field(name)
	if _, ok := fieldTable[f]; !ok {
		return "", fmt.Errorf("unknown stub field %q", name)
	}
	return f, nil
}

// Get liest den Wert des Feldes aus dem Stub.
func (f Field) Get(s *StubStudy) string {
	if acc, ok := fieldTable[f]; ok {
		return acc.get(s)
	}
	return ""
}

func (f Field) set(s *StubStudy, v string) bool {
	acc, ok := fieldTable[f]
	if !ok {
		return false
	}
	acc.set(s, v)
	return true
}
