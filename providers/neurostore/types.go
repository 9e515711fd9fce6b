// Package neurostore ist ein schlanker REST-Client für die Neurostore API.
package neurostore

// BaseStudy ist eine kanonische Studie, wie sie die Suche liefert.
type BaseStudy struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Publication string `json:"publication"`
	Authors     string `json:"authors"`
	DOI         string `json:"doi"`
	PMID        string `json:"pmid"`
	PMCID       string `json:"pmcid"`
	Year        *int   `json:"year"`
}

type listResponse struct {
	Results  []BaseStudy `json:"results"`
	Metadata struct {
		TotalCount int `json:"total_count"`
	} `json:"metadata"`
}

// StudyInput ist der Body zum Anlegen einer Studie.
type StudyInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Publication string `json:"publication,omitempty"`
	Authors     string `json:"authors,omitempty"`
	DOI         string `json:"doi,omitempty"`
	PMID        string `json:"pmid,omitempty"`
	PMCID       string `json:"pmcid,omitempty"`
	Year        *int   `json:"year,omitempty"`
}

type studysetInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Studies     []string `json:"studies"`
}

// NoteKey beschreibt eine Spalte einer Annotation.
type NoteKey struct {
	Type    string `json:"type"`
	Default any    `json:"default,omitempty"`
}

type annotationInput struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Studyset    string             `json:"studyset"`
	NoteKeys    map[string]NoteKey `json:"note_keys"`
}

type created struct {
	ID string `json:"id"`
}
