package curation

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCSVQuotesEverything(t *testing.T) {
	s := stub("a")
	s.Title = `He said, "hi"`
	s.Authors = "Smith J, Doe A"
	s.Tags = []Tag{{ID: "1", Label: "fmri"}, {ID: "2", Label: "rest"}}
	cols := []Column{{Name: "Screening", StubStudies: []StubStudy{s}}}

	out := ExportCSV(cols)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `"Title","Authors","PMID","PMCID","DOI","Year","Journal","Link","Source","Status","Exclusion","Tags","Neurostore ID"`, lines[0])
	assert.True(t, strings.HasPrefix(lines[1], `"He said, ""hi""","Smith J, Doe A"`))

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, `He said, "hi"`, records[1][0])
	assert.Equal(t, "Screening", records[1][9])
	assert.Equal(t, "fmri;rest", records[1][11])
}

func TestExportCSVOrder(t *testing.T) {
	e := excluded(stub("b"), Tag{ID: "x", Label: "Irrelevant"})
	cols := []Column{
		{Name: "One", StubStudies: []StubStudy{stub("c"), stub("a")}},
		{Name: "Two", StubStudies: []StubStudy{e}},
	}
	records, err := csv.NewReader(strings.NewReader(ExportCSV(cols))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "Title c", records[1][0])
	assert.Equal(t, "Title a", records[2][0])
	assert.Equal(t, "Title b", records[3][0])
	assert.Equal(t, "Irrelevant", records[3][10])
}

func TestCSVRoundTripThroughParse(t *testing.T) {
	s := stub("a")
	s.Title = `He said, "hi"`
	s.DOI = "10.1000/xyz"
	s.IdentificationSource = Source{ID: "pubmed", Label: "PubMed"}
	out := ExportCSV([]Column{{Name: "Included", StubStudies: []StubStudy{s}}})

	parsed, err := ParseCSV(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, s.Title, parsed[0].Title)
	assert.Equal(t, s.PMID, parsed[0].PMID)
	assert.Equal(t, s.DOI, parsed[0].DOI)
	assert.Equal(t, "PubMed", parsed[0].IdentificationSource.Label)
}

func TestParseCSVRequiresTitleColumn(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("Foo,Bar\n1,2\n"))
	assert.Error(t, err)
	_, err = ParseCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestExportBibTeX(t *testing.T) {
	s := StubStudy{
		ID:                   "stub_1",
		Title:                "Working memory in snake_case",
		Authors:              "Smith J",
		Journal:              "NeuroImage",
		DOI:                  "10.1016/j.x_1",
		PMID:                 "123",
		NeurostoreID:         "ns1",
		ArticleLink:          PubMedURLPrefix + "123",
		IdentificationSource: Source{Label: "PubMed"},
		Tags:                 []Tag{{Label: "fmri"}},
	}
	out := ExportBibTeX([]Column{{StubStudies: []StubStudy{s}}})

	assert.True(t, strings.HasPrefix(out, `@article{stub\textunderscore{}1,`))
	assert.Contains(t, out, `title = {Working memory in snake\textunderscore{}case},`)
	assert.Contains(t, out, `doi = {10.1016/j.x\textunderscore{}1},`)
	assert.Contains(t, out, `note = {PMID: 123; Neurostore ID: ns1; Source: PubMed; Tags: fmri},`)
	assert.Contains(t, out, "url = {https://pubmed.ncbi.nlm.nih.gov/123},")
	assert.NotContains(t, out, "pmcid")
	assert.Equal(t, 1, strings.Count(out, "@article{"))
}
