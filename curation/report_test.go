package curation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagDuplicates(t *testing.T) {
	existing := []StubStudy{{ID: "e1", PMID: "123", Title: "Alpha"}}
	incoming := []StubStudy{
		{ID: "n1", PMID: " 123 "},
		{ID: "n2", DOI: "https://doi.org/10.1/ABC", Title: "Beta"},
		{ID: "n3", DOI: "10.1/abc"},
		{ID: "n4", Title: "alpha!"},
		{ID: "n5", Title: "Gamma"},
	}
	n := FlagDuplicates(existing, incoming, DuplicateTag)
	assert.Equal(t, 3, n)
	assert.NotNil(t, incoming[0].ExclusionTag)
	assert.Nil(t, incoming[1].ExclusionTag)
	assert.NotNil(t, incoming[2].ExclusionTag)
	assert.NotNil(t, incoming[3].ExclusionTag)
	assert.Nil(t, incoming[4].ExclusionTag)
	assert.Equal(t, DuplicateExclusionID, incoming[0].ExclusionTag.ID)
}

func TestBuildPrismaReport(t *testing.T) {
	irrelevant := st0Tag(PhaseScreening)
	outOfScope := st0Tag(PhaseEligibility)
	st := prismaStateWith(
		[]StubStudy{stub("a"), excluded(stub("b"), DuplicateTag)},
		[]StubStudy{excluded(stub("c"), irrelevant)},
		[]StubStudy{excluded(stub("d"), outOfScope), stub("e")},
		[]StubStudy{stub("f"), stub("g")},
	)
	rep, ok := BuildPrismaReport(st)
	require.True(t, ok)
	assert.Equal(t, 7, rep.RecordsIdentified)
	assert.Equal(t, 1, rep.DuplicatesRemoved)
	assert.Equal(t, 5, rep.RecordsScreened)
	assert.Equal(t, 1, rep.RecordsExcluded)
	assert.Equal(t, 4, rep.ReportsAssessed)
	assert.Equal(t, 1, rep.ReportsExcluded)
	assert.Equal(t, 2, rep.StudiesIncluded)
	assert.Equal(t, 1, rep.Phases[2].ByExclusion["Out of scope"])

	_, ok = BuildPrismaReport(NewState(false))
	assert.False(t, ok)
}
