package curation

import (
	"fmt"

	"github.com/google/uuid"
)

// Phase ist eine PRISMA-Phase.
type Phase string

const (
	PhaseIdentification Phase = "identification"
	PhaseScreening      Phase = "screening"
	PhaseEligibility    Phase = "eligibility"
	PhaseIncluded       Phase = "included"
)

// Reihenfolge der PRISMA-Spalten; Index entspricht dem Spaltenindex.
var prismaPhases = []Phase{PhaseIdentification, PhaseScreening, PhaseEligibility, PhaseIncluded}

// ParsePhase wandelt einen String in eine Phase um. Leerer String ergibt die generische Phase "".
func ParsePhase(s string) (Phase, error) {
	if s == "" {
		return "", nil
	}
	for _, p := range prismaPhases {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown prisma phase %q", s)
}

// PhaseForColumn liefert die PRISMA-Phase für einen Spaltenindex.
func PhaseForColumn(columnIndex int) (Phase, bool) {
	if columnIndex < 0 || columnIndex >= len(prismaPhases) {
		return "", false
	}
	return prismaPhases[columnIndex], true
}

const (
	DuplicateExclusionID  = "duplicate-exclusion-id"
	NeedsReviewTagID      = "needs-review-tag-id"
	IrrelevantExclusionID = "irrelevant-exclusion-id"
	OutOfScopeExclusionID = "out-of-scope-exclusion-id"
	InsufficientDetailID  = "insufficient-detail-exclusion-id"
	LimitedResultsID      = "limited-results-exclusion-id"
	ExcludedGenericLabel  = "Excluded"
	DuplicateLabel        = "Duplicate"
)

// DuplicateTag ist das Standard-Ausschluss-Tag der Identifikationsphase.
var DuplicateTag = Tag{ID: DuplicateExclusionID, Label: DuplicateLabel, IsExclusionTag: true, IsAssignable: true}

func exclusion(id, label string) Tag {
	return Tag{ID: id, Label: label, IsExclusionTag: true, IsAssignable: true}
}

// NewState erzeugt den Anfangszustand eines Projekts, entweder mit 4 PRISMA-Spalten
// oder mit 2 Spalten im einfachen Workflow.
func NewState(isPrisma bool) State {
	st := State{
		InfoTags: []Tag{{ID: NeedsReviewTagID, Label: "Needs Review", IsAssignable: true}},
		Imports:  []Import{},
	}
	if isPrisma {
		st.PrismaConfig = PrismaConfig{
			IsPrisma:       true,
			Identification: PhaseConfig{ExclusionTags: []Tag{DuplicateTag}},
			Screening:      PhaseConfig{ExclusionTags: []Tag{exclusion(IrrelevantExclusionID, "Irrelevant")}},
			Eligibility: PhaseConfig{ExclusionTags: []Tag{
				exclusion(OutOfScopeExclusionID, "Out of scope"),
				exclusion(InsufficientDetailID, "Insufficient Detail"),
				exclusion(LimitedResultsID, "Limited Results"),
			}},
		}
		st.ExclusionTags = []Tag{}
		for _, name := range []string{"Identification", "Screening", "Eligibility", "Included"} {
			st.Columns = append(st.Columns, Column{ID: uuid.NewString(), Name: name, StubStudies: []StubStudy{}})
		}
		return st
	}
	st.ExclusionTags = []Tag{exclusion(OutOfScopeExclusionID, "Out of scope")}
	st.Columns = []Column{
		{ID: uuid.NewString(), Name: "Uncategorized", StubStudies: []StubStudy{}},
		{ID: uuid.NewString(), Name: "Included", StubStudies: []StubStudy{}},
	}
	return st
}

// phaseTags liefert einen Pointer auf die Tag-Liste einer Phase.
func (p *PrismaConfig) phaseTags(phase Phase) *[]Tag {
	switch phase {
	case PhaseIdentification:
		return &p.Identification.ExclusionTags
	case PhaseScreening:
		return &p.Screening.ExclusionTags
	case PhaseEligibility:
		return &p.Eligibility.ExclusionTags
	}
	return nil
}

// TagsForPhase liefert die Ausschluss-Tags einer Phase; nil für die Inklusionsphase.
func (p *PrismaConfig) TagsForPhase(phase Phase) []Tag {
	if tags := p.phaseTags(phase); tags != nil {
		return *tags
	}
	return nil
}
