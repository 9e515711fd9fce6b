package services

import (
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"metacurate/curation"
)

var (
	hyphenRE        = regexp.MustCompile(`(?m)([\p{L}\p{N}])-(?:\r?\n)([\p{Ll}])`)
	spaceRE         = regexp.MustCompile("[\t\f\v\u00A0]+")
	multiSpaceRE    = regexp.MustCompile(` {2,}`)
	multiNewlinesRE = regexp.MustCompile(`\n{3,}`)
	anyWhitespaceRE = regexp.MustCompile(`\s+`)

	ligatures = strings.NewReplacer(
		"ﬁ", "fi",
		"ﬂ", "fl",
		"ﬀ", "ff",
		"ﬃ", "ffi",
		"ﬄ", "ffl",
		"ﬆ", "st",
	)
)

// NormalizeOptions steuern die Heuristiken für die Text-Normalisierung
type NormalizeOptions struct {
	NormalizeUnicode   bool `json:"normalize_unicode"`
	FixHyphenation     bool `json:"fix_hyphenation"`
	CollapseWhitespace bool `json:"collapse_whitespace"`
	// SingleLine ersetzt jeden Zeilenumbruch durch ein Leerzeichen (Titel, Autoren, Journal)
	SingleLine bool `json:"single_line"`
}

// Stats enthält Kennzahlen zur Normalisierung
type Stats struct {
	FieldsChanged int `json:"fields_changed"`
	HyphenFixes   int `json:"hyphen_fixes"`
}

// TextNormalizer bereinigt importierte bibliographische Texte
type TextNormalizer struct {
	logger *zap.Logger
}

func NewTextNormalizer(logger *zap.Logger) *TextNormalizer {
	return &TextNormalizer{logger: logger}
}

// NormalizeText wendet die gewählten Heuristiken auf einen String an.
func (tn *TextNormalizer) NormalizeText(s string, opts NormalizeOptions) (string, int) {
	hyphenFixes := 0
	if opts.NormalizeUnicode {
		s = normalizeUnicodeAndLigatures(s)
	}
	if opts.FixHyphenation {
		s, hyphenFixes = fixHyphenation(s)
	}
	if opts.SingleLine {
		return strings.TrimSpace(anyWhitespaceRE.ReplaceAllString(s, " ")), hyphenFixes
	}
	if opts.CollapseWhitespace {
		s = collapseWhitespace(s)
	}
	return s, hyphenFixes
}

// NormalizeStubs bereinigt die Textfelder importierter Stub-Studien in place.
func (tn *TextNormalizer) NormalizeStubs(stubs []curation.StubStudy) Stats {
	line := NormalizeOptions{NormalizeUnicode: true, SingleLine: true}
	block := NormalizeOptions{NormalizeUnicode: true, FixHyphenation: true, CollapseWhitespace: true}

	var stats Stats
	apply := func(field *string, opts NormalizeOptions) {
		out, fixes := tn.NormalizeText(*field, opts)
		stats.HyphenFixes += fixes
		if out != *field {
			stats.FieldsChanged++
			*field = out
		}
	}
	for i := range stubs {
		s := &stubs[i]
		apply(&s.Title, line)
		apply(&s.Authors, line)
		apply(&s.Journal, line)
		apply(&s.Keywords, line)
		apply(&s.AbstractText, block)
		s.PMID = curation.NormalizePMID(s.PMID)
		s.DOI = strings.TrimSpace(s.DOI)
		s.PMCID = strings.ToUpper(strings.TrimSpace(s.PMCID))
		s.ArticleYear = strings.TrimSpace(s.ArticleYear)
	}
	if stats.FieldsChanged > 0 {
		tn.logger.Debug("Importtexte normalisiert",
			zap.Int("stubs", len(stubs)),
			zap.Int("fields_changed", stats.FieldsChanged),
			zap.Int("hyphen_fixes", stats.HyphenFixes))
	}
	return stats
}

// normalizeUnicodeAndLigatures führt NFC-Normalisierung durch und ersetzt gängige Ligaturen
func normalizeUnicodeAndLigatures(s string) string {
	s = ligatures.Replace(s)
	normalized, _, _ := transform.String(norm.NFC, s)
	return normalized
}

// fixHyphenation entfernt Trennstriche am Zeilenende zwischen Wort und kleinem Anfangsbuchstaben der Folgelinie
func fixHyphenation(s string) (string, int) {
	// Beispiel: "ab-\nweichung" -> "abweichung"
	count := len(hyphenRE.FindAllStringIndex(s, -1))
	if count == 0 {
		return s, 0
	}
	return hyphenRE.ReplaceAllString(s, "$1$2"), count
}

func collapseWhitespace(s string) string {
	// Mehrfache Spaces zu einem Space; mehr als zwei aufeinanderfolgende Zeilenumbrüche auf zwei begrenzen
	s = spaceRE.ReplaceAllString(s, " ")
	s = multiSpaceRE.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = multiNewlinesRE.ReplaceAllString(s, "\n\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRightFunc(lines[i], unicode.IsSpace)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
