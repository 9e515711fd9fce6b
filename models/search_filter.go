package models

// SearchFilter ist ein wiederverwendbarer Suchzusatz für PubMed- und Europe-PMC-Importe,
// z.B. "(humans[MeSH Terms]) AND (fmri)". Er wird per UND an den Suchbegriff gehängt.
type SearchFilter struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"uniqueIndex;not null"`
	Source      string `json:"source" gorm:"index;default:'pubmed'"` // pubmed, europepmc
	FilterQuery string `json:"filter_query" gorm:"type:text;not null"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (SearchFilter) TableName() string {
	return "search_filters"
}

// Apply hängt den Filter an einen Suchbegriff.
func (f SearchFilter) Apply(term string) string {
	if f.FilterQuery == "" {
		return term
	}
	if term == "" {
		return f.FilterQuery
	}
	return "(" + term + ") AND (" + f.FilterQuery + ")"
}
