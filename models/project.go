package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"metacurate/curation"
)

// Project ist ein Meta-Analyse-Projekt mit seinem Kurationsdokument.
type Project struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description,omitempty" gorm:"type:text"`
	IsPrisma    bool   `json:"is_prisma"`

	// Ergebnis der Ingestion in Neurostore
	NeurostoreStudysetID   string `json:"neurostore_studyset_id,omitempty" gorm:"index"`
	NeurostoreAnnotationID string `json:"neurostore_annotation_id,omitempty"`

	// Spalten, Tags und Importe als ein JSON-Dokument
	Curation datatypes.JSON `json:"curation" gorm:"type:jsonb"`
}

func (Project) TableName() string { return "projects" }

// CurationState dekodiert das gespeicherte Kurationsdokument.
func (p *Project) CurationState() (curation.State, error) {
	var st curation.State
	if len(p.Curation) == 0 {
		return curation.NewState(p.IsPrisma), nil
	}
	if err := json.Unmarshal(p.Curation, &st); err != nil {
		return curation.State{}, fmt.Errorf("decode curation of project %s: %w", p.ID, err)
	}
	return st, nil
}

// SetCurationState serialisiert das Kurationsdokument in die JSON-Spalte.
func (p *Project) SetCurationState(st curation.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode curation of project %s: %w", p.ID, err)
	}
	p.Curation = datatypes.JSON(raw)
	p.IsPrisma = st.PrismaConfig.IsPrisma
	return nil
}
