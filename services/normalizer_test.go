package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"metacurate/curation"
)

func TestNormalizeText(t *testing.T) {
	tn := NewTextNormalizer(zap.NewNop())

	out, fixes := tn.NormalizeText("Émotion  ﬁndings in the ab-\nweichung\n\n\n\nend  ", NormalizeOptions{
		NormalizeUnicode: true, FixHyphenation: true, CollapseWhitespace: true,
	})
	assert.Equal(t, "Émotion findings in the abweichung\n\nend", out)
	assert.Equal(t, 1, fixes)

	out, _ = tn.NormalizeText(" Working\n memory\tload ", NormalizeOptions{SingleLine: true})
	assert.Equal(t, "Working memory load", out)
}

func TestNormalizeStubs(t *testing.T) {
	tn := NewTextNormalizer(zap.NewNop())
	stubs := []curation.StubStudy{{
		Title:        "  A ﬂexible\nmodel ",
		PMID:         " PMID: 123 ",
		PMCID:        "pmc42",
		AbstractText: "Line one\n\n\n\nLine two",
	}}
	stats := tn.NormalizeStubs(stubs)

	assert.Equal(t, "A flexible model", stubs[0].Title)
	assert.Equal(t, "123", stubs[0].PMID)
	assert.Equal(t, "PMC42", stubs[0].PMCID)
	assert.Equal(t, "Line one\n\nLine two", stubs[0].AbstractText)
	assert.Equal(t, 2, stats.FieldsChanged)
}
