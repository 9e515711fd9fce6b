package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"metacurate/curation"
	"metacurate/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "curation.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Project{},
		&models.IngestionRun{},
		&models.ExportArchive{},
		&models.SearchFilter{},
		&models.MetaAnalysis{},
	))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func newTestCuration(t *testing.T) *CurationService {
	return NewCurationService(newTestDB(t), zap.NewNop())
}

// seed hängt Stubs mit festen IDs als Import an die erste Spalte.
func seed(t *testing.T, svc *CurationService, projectID string, stubs ...curation.StubStudy) string {
	t.Helper()
	imp := curation.Import{ID: "imp-" + stubs[0].ID, Name: "seed", Date: time.Now(), ImportModeUsed: curation.ImportModeManual}
	_, applied, err := svc.Mutate(context.Background(), projectID, "seed", func(st *curation.Store) (bool, error) {
		return st.AddImport(imp, stubs), nil
	})
	require.NoError(t, err)
	require.True(t, applied)
	return imp.ID
}

func testStub(id, title string) curation.StubStudy {
	return curation.StubStudy{ID: id, Title: title, Tags: []curation.Tag{}}
}

func TestPromoteAndDemotePersist(t *testing.T) {
	ctx := context.Background()
	svc := newTestCuration(t)
	p, err := svc.CreateProject(ctx, "Pain", "", false)
	require.NoError(t, err)
	seed(t, svc, p.ID, testStub("a", "First"), testStub("b", "Second"))

	st, applied, err := svc.PromoteStub(ctx, p.ID, 0, "a")
	require.NoError(t, err)
	assert.True(t, applied)
	require.Len(t, st.Columns[1].StubStudies, 1)
	assert.Equal(t, "a", st.Columns[1].StubStudies[0].ID)

	// Letzte Spalte: keine Wirkung.
	_, applied, err = svc.PromoteStub(ctx, p.ID, 1, "a")
	require.NoError(t, err)
	assert.False(t, applied)

	_, applied, err = svc.PromoteStub(ctx, p.ID, 0, "missing")
	require.NoError(t, err)
	assert.False(t, applied)

	stored, err := svc.State(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Columns[0].StubStudies, 1)
	assert.Len(t, stored.Columns[1].StubStudies, 1)

	st, applied, err = svc.DemoteStub(ctx, p.ID, 1, "a")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, []string{"b", "a"}, []string{st.Columns[0].StubStudies[0].ID, st.Columns[0].StubStudies[1].ID})
}

func TestExclusionLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newTestCuration(t)
	p, err := svc.CreateProject(ctx, "Reward", "", false)
	require.NoError(t, err)
	seed(t, svc, p.ID, testStub("a", "First"))

	tag, err := svc.CreateExclusion(ctx, p.ID, "Animal study", "")
	require.NoError(t, err)
	assert.True(t, tag.IsExclusionTag)

	st, applied, err := svc.SetExclusion(ctx, p.ID, 0, "a", tag.ID)
	require.NoError(t, err)
	assert.True(t, applied)
	require.NotNil(t, st.Columns[0].StubStudies[0].ExclusionTag)
	assert.Equal(t, "Animal study", st.Columns[0].StubStudies[0].ExclusionTag.Label)

	groups, err := svc.Groups(ctx, p.ID)
	require.NoError(t, err)
	var excluded curation.GroupListItem
	for _, g := range groups {
		if g.ID == "excluded" {
			excluded = g
		}
	}
	require.NotNil(t, excluded.Count)
	assert.Equal(t, 1, *excluded.Count)

	_, _, err = svc.SetExclusion(ctx, p.ID, 0, "a", "nope")
	assert.ErrorIs(t, err, ErrUnknownTag)

	st, applied, err = svc.SetExclusion(ctx, p.ID, 0, "a", "")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Nil(t, st.Columns[0].StubStudies[0].ExclusionTag)
}

func TestCreateExclusionValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestCuration(t)
	p, err := svc.CreateProject(ctx, "Prisma", "", true)
	require.NoError(t, err)

	_, err = svc.CreateExclusion(ctx, p.ID, "  ", "screening")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.CreateExclusion(ctx, p.ID, "Wrong", "included-ish")
	assert.ErrorIs(t, err, ErrInvalidInput)

	tag, err := svc.CreateExclusion(ctx, p.ID, "Wrong population", "screening")
	require.NoError(t, err)
	st, err := svc.State(ctx, p.ID)
	require.NoError(t, err)
	assert.Contains(t, st.PrismaConfig.Screening.ExclusionTags, curation.Tag{
		ID: tag.ID, Label: "Wrong population", IsExclusionTag: true, IsAssignable: true,
	})
}

func TestPrismaExclusionsStayInPhase(t *testing.T) {
	ctx := context.Background()
	svc := newTestCuration(t)
	p, err := svc.CreateProject(ctx, "Prisma", "", true)
	require.NoError(t, err)
	seed(t, svc, p.ID, testStub("a", "First"), testStub("b", "Second"))

	_, err = svc.CreateExclusion(ctx, p.ID, "No phase", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.CreateExclusion(ctx, p.ID, "Included phase", "included")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.CreateExclusion(ctx, p.ID, "Second duplicate reason", "identification")
	assert.ErrorIs(t, err, ErrInvalidInput)

	st, applied, err := svc.SetExclusion(ctx, p.ID, 0, "a", curation.IrrelevantExclusionID)
	assert.ErrorIs(t, err, ErrUnknownTag)
	assert.False(t, applied)
	assert.Empty(t, st.Columns)

	stored, err := svc.State(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Columns[0].StubStudies[0].ExclusionTag)
	assert.Empty(t, stored.ExclusionTags)

	_, applied, err = svc.SetExclusion(ctx, p.ID, 0, "b", curation.DuplicateExclusionID)
	require.NoError(t, err)
	assert.True(t, applied)

	groups, err := svc.Groups(ctx, p.ID)
	require.NoError(t, err)
	visible := 0
	for _, g := range groups {
		if g.Count != nil && (g.Label == "Identification" || g.ExclusionTagID == curation.DuplicateExclusionID) {
			visible += *g.Count
		}
	}
	assert.Equal(t, 2, visible)
}

func TestTagsAndFields(t *testing.T) {
	ctx := context.Background()
	svc := newTestCuration(t)
	p, err := svc.CreateProject(ctx, "Tags", "", false)
	require.NoError(t, err)
	seed(t, svc, p.ID, curation.StubStudy{ID: "a", Title: "First", PMID: "1", ArticleLink: curation.PubMedURLPrefix + "1", Tags: []curation.Tag{}})

	info, err := svc.CreateInfoTag(ctx, p.ID, "Check later")
	require.NoError(t, err)

	st, applied, err := svc.AddTag(ctx, p.ID, 0, "a", info.ID)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Len(t, st.Columns[0].StubStudies[0].Tags, 1)

	_, applied, err = svc.AddTag(ctx, p.ID, 0, "a", info.ID)
	require.NoError(t, err)
	assert.False(t, applied)

	_, _, err = svc.AddTag(ctx, p.ID, 0, "a", "unknown")
	assert.ErrorIs(t, err, ErrUnknownTag)

	st, applied, err = svc.RemoveTag(ctx, p.ID, 0, "a", info.ID)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Empty(t, st.Columns[0].StubStudies[0].Tags)

	st, applied, err = svc.UpdateField(ctx, p.ID, 0, "a", "pmid", "42")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, curation.PubMedURLPrefix+"42", st.Columns[0].StubStudies[0].ArticleLink)

	_, _, err = svc.UpdateField(ctx, p.ID, 0, "a", "color", "red")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteImportAndMissingProject(t *testing.T) {
	ctx := context.Background()
	svc := newTestCuration(t)
	p, err := svc.CreateProject(ctx, "Imports", "", false)
	require.NoError(t, err)
	first := seed(t, svc, p.ID, testStub("a", "First"))
	seed(t, svc, p.ID, testStub("b", "Second"))

	st, applied, err := svc.DeleteImport(ctx, p.ID, first)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Len(t, st.Imports, 1)
	require.Len(t, st.Columns[0].StubStudies, 1)
	assert.Equal(t, "b", st.Columns[0].StubStudies[0].ID)

	_, applied, err = svc.DeleteImport(ctx, p.ID, first)
	require.NoError(t, err)
	assert.False(t, applied)

	_, err = svc.GetProject(ctx, "does-not-exist")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, _, err = svc.PromoteStub(ctx, "does-not-exist", 0, "a")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGroupStubsAndPrismaReport(t *testing.T) {
	ctx := context.Background()
	svc := newTestCuration(t)
	p, err := svc.CreateProject(ctx, "Prisma", "", true)
	require.NoError(t, err)
	seed(t, svc, p.ID, testStub("a", "First"), testStub("b", "Second"))
	_, _, err = svc.SetExclusion(ctx, p.ID, 0, "b", curation.DuplicateExclusionID)
	require.NoError(t, err)

	g, stubs, err := svc.GroupStubs(ctx, p.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "Identification", g.Label)
	require.Len(t, stubs, 1)
	assert.Equal(t, "a", stubs[0].ID)

	_, _, err = svc.GroupStubs(ctx, p.ID, "unknown-group")
	require.NoError(t, err, "unknown selection falls back to the first column")

	rep, ok, err := svc.PrismaReport(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, rep.RecordsIdentified)
	assert.Equal(t, 1, rep.DuplicatesRemoved)

	simple, err := svc.CreateProject(ctx, "Simple", "", false)
	require.NoError(t, err)
	_, ok, err = svc.PrismaReport(ctx, simple.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListProjectsOmitsCuration(t *testing.T) {
	ctx := context.Background()
	svc := newTestCuration(t)
	_, err := svc.CreateProject(ctx, "One", "", false)
	require.NoError(t, err)
	_, err = svc.CreateProject(ctx, "", "", false)
	assert.ErrorIs(t, err, ErrInvalidInput)

	projects, err := svc.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "One", projects[0].Name)
	assert.Empty(t, projects[0].Curation)
}
