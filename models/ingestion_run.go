package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Status einer Ingestion und ihrer Einzelschritte.
const (
	IngestionPending = "PENDING"
	IngestionRunning = "RUNNING"
	IngestionDone    = "DONE"
	IngestionError   = "ERROR"
)

// IngestionStep ist das Ergebnis für genau eine Stub-Studie.
type IngestionStep struct {
	StubID       string `json:"stub_id"`
	Title        string `json:"title"`
	Status       string `json:"status"`
	NeurostoreID string `json:"neurostore_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

// IngestionRun protokolliert das Anlegen der eingeschlossenen Studien in Neurostore.
// Cursor zeigt auf den nächsten zu verarbeitenden Schritt.
type IngestionRun struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectID string `json:"project_id" gorm:"index;size:36;not null"`
	Status    string `json:"status" gorm:"index;default:'PENDING'"`
	Cursor    int    `json:"cursor"`
	Total     int    `json:"total"`

	StudysetID   string `json:"studyset_id,omitempty"`
	AnnotationID string `json:"annotation_id,omitempty"`
	Error        string `json:"error,omitempty" gorm:"type:text"`

	Steps datatypes.JSON `json:"steps" gorm:"type:jsonb"`
}

func (IngestionRun) TableName() string { return "ingestion_runs" }

func (r *IngestionRun) DecodeSteps() ([]IngestionStep, error) {
	var steps []IngestionStep
	if len(r.Steps) == 0 {
		return steps, nil
	}
	err := json.Unmarshal(r.Steps, &steps)
	return steps, err
}

func (r *IngestionRun) EncodeSteps(steps []IngestionStep) error {
	raw, err := json.Marshal(steps)
	if err != nil {
		return err
	}
	r.Steps = datatypes.JSON(raw)
	return nil
}
