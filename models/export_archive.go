package models

import "time"

// ExportArchive beschreibt einen nach S3 hochgeladenen Export eines Projekts.
type ExportArchive struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	ProjectID string `json:"project_id" gorm:"index;size:36;not null"`
	Format    string `json:"format" gorm:"index"` // csv, bibtex
	NumStubs  int    `json:"num_stubs"`

	S3Key  string `json:"s3_key"`
	S3Link string `json:"s3_link,omitempty" gorm:"type:text"`

	// nightly = vom Cron-Job erzeugt
	Trigger string `json:"trigger" gorm:"default:'manual'"`
}

// TableName gibt explizit den Tabellennamen an.
func (ExportArchive) TableName() string {
	return "export_archives"
}
