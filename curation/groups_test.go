package curation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func excluded(s StubStudy, tag Tag) StubStudy {
	t := tag
	s.ExclusionTag = &t
	return s
}

func TestDeriveGroupsPrismaDuplicateBucketIsFlat(t *testing.T) {
	st := prismaStateWith([]StubStudy{stub("a"), excluded(stub("b"), DuplicateTag)})
	groups, err := DeriveGroups(st)
	require.NoError(t, err)

	require.Equal(t, GroupTypeSubheader, groups[0].Type)
	require.Equal(t, GroupTypeListItem, groups[1].Type)
	assert.Equal(t, "Identification", groups[1].Label)
	assert.Equal(t, 1, *groups[1].Count)

	dup := groups[2]
	assert.Equal(t, GroupTypeExclude, dup.Type)
	assert.Equal(t, DuplicateLabel, dup.Label)
	assert.Equal(t, 1, *dup.Count)
	assert.Empty(t, dup.Children)
	assert.Equal(t, PhaseIdentification, dup.PrismaPhase)
}

func TestDeriveGroupsPrismaCountsPerColumn(t *testing.T) {
	irrelevant := st0Tag(PhaseScreening)
	st := prismaStateWith(
		nil,
		[]StubStudy{stub("a"), excluded(stub("b"), irrelevant), stub("c")},
		[]StubStudy{excluded(stub("d"), irrelevant)},
		[]StubStudy{stub("e")},
	)
	groups, err := DeriveGroups(st)
	require.NoError(t, err)

	for _, g := range groups {
		if g.Type != GroupTypeListItem || g.ColumnIndex == nil {
			continue
		}
		assert.Equal(t, countNotExcluded(st.Columns[*g.ColumnIndex]), *g.Count, g.Label)
	}

	screeningExcluded, ok := findGroup(groups, st.Columns[1].ID+"_exclude")
	require.True(t, ok)
	require.Len(t, screeningExcluded.Children, 1)
	assert.Equal(t, 1, *screeningExcluded.Children[0].Count)
	assert.Equal(t, 1, *screeningExcluded.Count)

	// Das Eligibility-Bucket kennt das Screening-Tag nicht, der Stub wird dort nicht gezählt.
	eligibilityExcluded, ok := findGroup(groups, st.Columns[2].ID+"_exclude")
	require.True(t, ok)
	assert.Len(t, eligibilityExcluded.Children, 3)
	assert.Equal(t, 0, *eligibilityExcluded.Count)

	// Die Inklusionsspalte hat kein Ausschluss-Bucket.
	_, ok = findGroup(groups, st.Columns[3].ID+"_exclude")
	assert.False(t, ok)
}

func st0Tag(phase Phase) Tag {
	st := NewState(true)
	return st.PrismaConfig.TagsForPhase(phase)[0]
}

func TestDeriveGroupsSimpleSumsAcrossColumns(t *testing.T) {
	offTopic := Tag{ID: "t1", Label: "off-topic", IsExclusionTag: true}
	st := NewState(false)
	st.ExclusionTags = []Tag{offTopic}
	st.Columns[0].StubStudies = []StubStudy{excluded(stub("a"), offTopic), stub("b")}
	st.Columns[1].StubStudies = []StubStudy{stub("c")}

	groups, err := DeriveGroups(st)
	require.NoError(t, err)

	assert.Equal(t, GroupTypeListItem, groups[1].Type)
	assert.Equal(t, 1, *groups[1].Count)
	assert.Equal(t, "excluded", groups[2].ID)
	require.Len(t, groups[2].Children, 1)
	assert.Equal(t, "t1", groups[2].Children[0].ID)
	assert.Equal(t, 1, *groups[2].Children[0].Count)
	assert.Equal(t, "Included", groups[3].Label)
	assert.Equal(t, 1, *groups[3].Count)

	st.Columns[1].StubStudies = append(st.Columns[1].StubStudies, excluded(stub("d"), offTopic))
	groups, err = DeriveGroups(st)
	require.NoError(t, err)
	assert.Equal(t, 2, *groups[2].Children[0].Count)
}

func TestDeriveGroupsSimpleRequiresTwoColumns(t *testing.T) {
	st := NewState(false)
	st.Columns = append(st.Columns, Column{ID: "extra", Name: "extra"})
	_, err := DeriveGroups(st)
	assert.True(t, errors.Is(err, ErrInvalidColumnCount))
}

func TestDeriveGroupsImportsNewestFirst(t *testing.T) {
	s := NewStore(NewState(false))
	date := time.Date(2024, 3, 5, 14, 7, 0, 0, time.UTC)
	s.AddImport(Import{ID: "imp-1", Name: "first", Date: date, ImportModeUsed: ImportModePubMed}, []StubStudy{stub("a"), stub("b")})
	s.AddImport(Import{ID: "imp-2", Name: "second", Date: date.Add(time.Hour), ImportModeUsed: ImportModeFile}, []StubStudy{stub("c")})

	groups, err := DeriveGroups(s.State())
	require.NoError(t, err)

	n := len(groups)
	assert.Equal(t, ImportsHeaderID, groups[n-3].ID)
	assert.Equal(t, "imp-2", groups[n-2].ID)
	assert.Equal(t, "imp-1", groups[n-1].ID)
	assert.Equal(t, "pubmed import\n2024-03-05 14:07", groups[n-1].SecondaryLabel)
	assert.Equal(t, 2, *groups[n-1].Count)

	stubs := StubsForGroup(s.State(), groups[n-1])
	assert.Len(t, stubs, 2)
}

func TestDefaultSelection(t *testing.T) {
	groups, err := DeriveGroups(NewState(true))
	require.NoError(t, err)

	sel, ok := DefaultSelection(groups, "", 4)
	require.True(t, ok)
	assert.Equal(t, groups[1].ID, sel.ID)

	sel, ok = DefaultSelection(groups, groups[3].ID, 4)
	require.True(t, ok)
	assert.Equal(t, groups[3].ID, sel.ID)

	_, ok = DefaultSelection(groups[:1], "", 0)
	assert.False(t, ok)
}

func TestStubsForExcludeGroup(t *testing.T) {
	st := prismaStateWith([]StubStudy{stub("a"), excluded(stub("b"), DuplicateTag)})
	groups, err := DeriveGroups(st)
	require.NoError(t, err)
	stubs := StubsForGroup(st, groups[2])
	require.Len(t, stubs, 1)
	assert.Equal(t, "b", stubs[0].ID)
}
