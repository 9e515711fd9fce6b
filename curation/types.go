// Package curation enthält das Zustandsmodell der Studien-Kuratierung:
// Spalten (Pipeline-Stufen), Stub-Studien, Ausschluss-Tags und Importe.
package curation

import "time"

// PubMedURLPrefix ist der kanonische Präfix für PubMed-Artikellinks.
const PubMedURLPrefix = "https://pubmed.ncbi.nlm.nih.gov/"

// ImportMode beschreibt, auf welchem Weg ein Import erstellt wurde.
type ImportMode string

const (
	ImportModeFile       ImportMode = "file import"
	ImportModeManual     ImportMode = "manual create"
	ImportModeNeurostore ImportMode = "neurostore import"
	ImportModePubMed     ImportMode = "pubmed import"
)

// Valid meldet, ob der Modus einer der bekannten Import-Modi ist.
func (m ImportMode) Valid() bool {
	switch m {
	case ImportModeFile, ImportModeManual, ImportModeNeurostore, ImportModePubMed:
		return true
	}
	return false
}

// Tag ist ein informatives Tag oder, mit IsExclusionTag, ein Ausschlussgrund.
type Tag struct {
	ID             string `json:"id"`
	Label          string `json:"label"`
	IsExclusionTag bool   `json:"isExclusionTag"`
	IsAssignable   bool   `json:"isAssignable"`
}

// Source beschreibt die Herkunft einer Stub-Studie (z.B. PubMed, Neurostore).
type Source struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Bekannte Herkunftsquellen.
var (
	SourcePubMed     = Source{ID: "pubmed", Label: "PubMed"}
	SourceEuropePMC  = Source{ID: "europepmc", Label: "Europe PMC"}
	SourceNeurostore = Source{ID: "neurostore", Label: "Neurostore"}
	SourceManual     = Source{ID: "manual", Label: "Manual"}
)

// StubStudy ist ein leichtgewichtiger bibliographischer Datensatz, der durch die Pipeline wandert.
type StubStudy struct {
	ID                   string `json:"id"`
	Title                string `json:"title"`
	Authors              string `json:"authors"`
	Keywords             string `json:"keywords"`
	PMID                 string `json:"pmid"`
	PMCID                string `json:"pmcid"`
	DOI                  string `json:"doi"`
	ArticleYear          string `json:"articleYear"`
	Journal              string `json:"journal"`
	AbstractText         string `json:"abstractText"`
	ArticleLink          string `json:"articleLink"`
	IdentificationSource Source `json:"identificationSource"`
	ExclusionTag         *Tag   `json:"exclusionTag"`
	Tags                 []Tag  `json:"tags"`
	ImportID             string `json:"importId"`
	NeurostoreID         string `json:"neurostoreId,omitempty"`
}

// IsExcluded meldet, ob der Stub ein Ausschluss-Tag trägt.
func (s *StubStudy) IsExcluded() bool {
	return s.ExclusionTag != nil
}

// HasTag meldet, ob ein Tag mit der ID bereits gesetzt ist.
func (s *StubStudy) HasTag(tagID string) bool {
	for _, t := range s.Tags {
		if t.ID == tagID {
			return true
		}
	}
	return false
}

// Column ist eine Stufe der Kuratierungs-Pipeline.
type Column struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	StubStudies []StubStudy `json:"stubStudies"`
}

// Import ist ein gemeinsam hinzugefügter Batch von Stubs.
type Import struct {
	ID                     string            `json:"id"`
	Name                   string            `json:"name"`
	Date                   time.Time         `json:"date"`
	ImportModeUsed         ImportMode        `json:"importModeUsed"`
	NumImported            int               `json:"numImported"`
	ErrorsDuringImport     []string          `json:"errorsDuringImport,omitempty"`
	NeurostoreSearchParams map[string]string `json:"neurostoreSearchParams,omitempty"`
}

// PhaseConfig hält die Ausschluss-Tags einer PRISMA-Phase.
type PhaseConfig struct {
	ExclusionTags []Tag `json:"exclusionTags"`
}

// PrismaConfig beschreibt, ob das Projekt im PRISMA-Modus läuft, samt phasenbezogener Tags.
type PrismaConfig struct {
	IsPrisma       bool        `json:"isPrisma"`
	Identification PhaseConfig `json:"identification"`
	Screening      PhaseConfig `json:"screening"`
	Eligibility    PhaseConfig `json:"eligibility"`
}

// State ist das persistierte Kuratierungsdokument eines Projekts.
type State struct {
	Columns       []Column     `json:"columns"`
	PrismaConfig  PrismaConfig `json:"prismaConfig"`
	ExclusionTags []Tag        `json:"exclusionTags"`
	InfoTags      []Tag        `json:"infoTags"`
	Imports       []Import     `json:"imports"`
}

// StubCount liefert die Gesamtzahl der Stubs über alle Spalten.
func (s State) StubCount() int {
	n := 0
	for _, c := range s.Columns {
		n += len(c.StubStudies)
	}
	return n
}

// Clone erstellt eine tiefe Kopie, damit Mutationen am Store den Ausgangszustand nicht verändern.
func (s State) Clone() State {
	out := s
	out.Columns = cloneSlice(s.Columns)
	for i := range out.Columns {
		out.Columns[i].StubStudies = cloneSlice(s.Columns[i].StubStudies)
		for j := range out.Columns[i].StubStudies {
			out.Columns[i].StubStudies[j] = out.Columns[i].StubStudies[j].clone()
		}
	}
	out.ExclusionTags = cloneSlice(s.ExclusionTags)
	out.InfoTags = cloneSlice(s.InfoTags)
	out.Imports = cloneSlice(s.Imports)
	out.PrismaConfig.Identification.ExclusionTags = cloneSlice(s.PrismaConfig.Identification.ExclusionTags)
	out.PrismaConfig.Screening.ExclusionTags = cloneSlice(s.PrismaConfig.Screening.ExclusionTags)
	out.PrismaConfig.Eligibility.ExclusionTags = cloneSlice(s.PrismaConfig.Eligibility.ExclusionTags)
	return out
}

func (s StubStudy) clone() StubStudy {
	out := s
	if s.ExclusionTag != nil {
		t := *s.ExclusionTag
		out.ExclusionTag = &t
	}
	out.Tags = cloneSlice(s.Tags)
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
