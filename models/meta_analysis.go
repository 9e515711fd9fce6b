package models

import (
	"time"

	"gorm.io/datatypes"
)

// MetaAnalysis speichert eine validierte Analyse-Spezifikation eines Projekts.
type MetaAnalysis struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectID string `json:"project_id" gorm:"index;size:36;not null"`
	Name      string `json:"name"`
	Estimator string `json:"estimator" gorm:"index"`
	Corrector string `json:"corrector,omitempty"`

	// Aufgelöste Spezifikation inkl. Default-Argumenten
	Specification datatypes.JSON `json:"specification" gorm:"type:jsonb"`
}

// TableName gibt explizit den Tabellennamen an.
func (MetaAnalysis) TableName() string {
	return "meta_analyses"
}
