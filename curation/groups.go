package curation

import (
	"errors"
	"fmt"
)

// ErrInvalidColumnCount signalisiert eine beschädigte Projektkonfiguration:
// ein Projekt ohne PRISMA muss genau zwei Spalten haben.
var ErrInvalidColumnCount = errors.New("non-prisma project must have exactly two columns")

// GroupType unterscheidet die Einträge der Gruppenliste.
type GroupType string

const (
	GroupTypeSubheader GroupType = "SUBHEADER"
	GroupTypeListItem  GroupType = "LISTITEM"
	GroupTypeExclude   GroupType = "EXCLUDE"
	GroupTypeDivider   GroupType = "DIVIDER"
)

const (
	CurationHeaderID = "curation_header"
	ImportsHeaderID  = "import_header"
)

// GroupListItem ist ein abgeleiteter Navigationseintrag (Spalte, Ausschluss-Bucket, Import).
type GroupListItem struct {
	Type           GroupType       `json:"type"`
	ID             string          `json:"id"`
	Label          string          `json:"label"`
	SecondaryLabel string          `json:"secondaryLabel,omitempty"`
	Count          *int            `json:"count,omitempty"`
	ColumnIndex    *int            `json:"columnIndex,omitempty"`
	ExclusionTagID string          `json:"exclusionTagId,omitempty"`
	PrismaPhase    Phase           `json:"prismaPhase,omitempty"`
	Children       []GroupListItem `json:"children,omitempty"`
}

func intPtr(n int) *int { return &n }

func countNotExcluded(col Column) int {
	n := 0
	for _, s := range col.StubStudies {
		if s.ExclusionTag == nil {
			n++
		}
	}
	return n
}

func countWithExclusion(col Column, tagID string) int {
	n := 0
	for _, s := range col.StubStudies {
		if s.ExclusionTag != nil && s.ExclusionTag.ID == tagID {
			n++
		}
	}
	return n
}

func columnItem(col Column, idx int, phase Phase) GroupListItem {
	return GroupListItem{
		Type:        GroupTypeListItem,
		ID:          col.ID,
		Label:       col.Name,
		Count:       intPtr(countNotExcluded(col)),
		ColumnIndex: intPtr(idx),
		PrismaPhase: phase,
	}
}

// DeriveGroups berechnet die Gruppenliste aus Spalten, Ausschluss-Tags und Importen.
// Die Zähler werden bei jedem Aufruf frisch aus den Stubs berechnet.
func DeriveGroups(st State) ([]GroupListItem, error) {
	groups := []GroupListItem{{Type: GroupTypeSubheader, ID: CurationHeaderID, Label: "Curation"}}

	if st.PrismaConfig.IsPrisma {
		for i, col := range st.Columns {
			phase, _ := PhaseForColumn(i)
			groups = append(groups, columnItem(col, i, phase))
			switch phase {
			case PhaseIdentification:
				dup := DuplicateTag
				if tags := st.PrismaConfig.Identification.ExclusionTags; len(tags) > 0 {
					dup = tags[0]
				}
				groups = append(groups, GroupListItem{
					Type:           GroupTypeExclude,
					ID:             fmt.Sprintf("%s_%s", col.ID, dup.ID),
					Label:          dup.Label,
					Count:          intPtr(countWithExclusion(col, dup.ID)),
					ColumnIndex:    intPtr(i),
					ExclusionTagID: dup.ID,
					PrismaPhase:    phase,
				})
			case PhaseScreening, PhaseEligibility:
				parent := GroupListItem{
					Type:        GroupTypeExclude,
					ID:          fmt.Sprintf("%s_exclude", col.ID),
					Label:       ExcludedGenericLabel,
					ColumnIndex: intPtr(i),
					PrismaPhase: phase,
					Children:    []GroupListItem{},
				}
				total := 0
				for _, tag := range st.PrismaConfig.TagsForPhase(phase) {
					n := countWithExclusion(col, tag.ID)
					total += n
					parent.Children = append(parent.Children, GroupListItem{
						Type:           GroupTypeExclude,
						ID:             fmt.Sprintf("%s_%s", col.ID, tag.ID),
						Label:          tag.Label,
						Count:          intPtr(n),
						ColumnIndex:    intPtr(i),
						ExclusionTagID: tag.ID,
						PrismaPhase:    phase,
					})
				}
				parent.Count = intPtr(total)
				groups = append(groups, parent)
			}
		}
	} else {
		if len(st.Columns) != 2 {
			return nil, fmt.Errorf("%w: got %d", ErrInvalidColumnCount, len(st.Columns))
		}
		groups = append(groups, columnItem(st.Columns[0], 0, ""))

		// Im einfachen Workflow wird über alle Spalten gezählt, im PRISMA-Modus nur pro Spalte.
		excluded := GroupListItem{
			Type:     GroupTypeExclude,
			ID:       "excluded",
			Label:    ExcludedGenericLabel,
			Children: []GroupListItem{},
		}
		total := 0
		for _, tag := range st.ExclusionTags {
			n := 0
			for _, col := range st.Columns {
				n += countWithExclusion(col, tag.ID)
			}
			total += n
			excluded.Children = append(excluded.Children, GroupListItem{
				Type:           GroupTypeExclude,
				ID:             tag.ID,
				Label:          tag.Label,
				Count:          intPtr(n),
				ExclusionTagID: tag.ID,
			})
		}
		excluded.Count = intPtr(total)
		groups = append(groups, excluded, columnItem(st.Columns[1], 1, ""))
	}

	groups = append(groups, GroupListItem{Type: GroupTypeSubheader, ID: ImportsHeaderID, Label: "Imports"})
	for i := len(st.Imports) - 1; i >= 0; i-- {
		imp := st.Imports[i]
		groups = append(groups, GroupListItem{
			Type:           GroupTypeListItem,
			ID:             imp.ID,
			Label:          imp.Name,
			SecondaryLabel: fmt.Sprintf("%s\n%s %s", imp.ImportModeUsed, imp.Date.Format("2006-01-02"), imp.Date.Format("15:04")),
			Count:          intPtr(imp.NumImported),
		})
	}
	return groups, nil
}

// DefaultSelection liefert die auszuwählende Gruppe: die bestehende Auswahl, falls sie
// noch existiert, sonst die erste echte Spalte (groups[1]).
func DefaultSelection(groups []GroupListItem, selectedID string, numColumns int) (GroupListItem, bool) {
	if selectedID != "" {
		if g, ok := findGroup(groups, selectedID); ok {
			return g, true
		}
	}
	if numColumns > 0 && len(groups) > 1 {
		return groups[1], true
	}
	return GroupListItem{}, false
}

func findGroup(groups []GroupListItem, id string) (GroupListItem, bool) {
	for _, g := range groups {
		if g.ID == id {
			return g, true
		}
		if c, ok := findGroup(g.Children, id); ok {
			return c, true
		}
	}
	return GroupListItem{}, false
}

// StubsForGroup liefert die Stubs, die eine Gruppe anzeigt.
func StubsForGroup(st State, g GroupListItem) []StubStudy {
	var out []StubStudy
	switch {
	case g.Type == GroupTypeListItem && g.ColumnIndex != nil:
		if *g.ColumnIndex < len(st.Columns) {
			for _, s := range st.Columns[*g.ColumnIndex].StubStudies {
				if s.ExclusionTag == nil {
					out = append(out, s)
				}
			}
		}
	case g.Type == GroupTypeListItem:
		for _, col := range st.Columns {
			for _, s := range col.StubStudies {
				if s.ImportID == g.ID {
					out = append(out, s)
				}
			}
		}
	case g.Type == GroupTypeExclude:
		for ci, col := range st.Columns {
			if g.ColumnIndex != nil && *g.ColumnIndex != ci {
				continue
			}
			for _, s := range col.StubStudies {
				if s.ExclusionTag == nil {
					continue
				}
				if g.ExclusionTagID == "" || s.ExclusionTag.ID == g.ExclusionTagID {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
