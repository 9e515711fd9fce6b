package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"metacurate/config"
	"metacurate/curation"
	"metacurate/storage"
)

type memoryUploader struct {
	objects map[string]string
	err     error
}

func (m *memoryUploader) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.objects[aws.ToString(in.Key)] = string(data)
	return &s3.PutObjectOutput{}, nil
}

func TestRenderExports(t *testing.T) {
	ctx := context.Background()
	cur := newTestCuration(t)
	p, err := cur.CreateProject(ctx, "Export", "", false)
	require.NoError(t, err)
	seed(t, cur, p.ID, curation.StubStudy{ID: "smith_2020", Title: `Say "hi"`, Tags: []curation.Tag{}})

	svc := NewExportService(cur, nil, zap.NewNop())
	exp, err := svc.Render(ctx, p.ID, FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, p.ID+".csv", exp.Filename)
	assert.Equal(t, 1, exp.NumStubs)
	lines := strings.Split(strings.TrimSpace(string(exp.Content)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], `"Say ""hi""","",`))
	assert.Contains(t, lines[1], `"Uncategorized"`)

	exp, err = svc.Render(ctx, p.ID, FormatBibTeX)
	require.NoError(t, err)
	assert.Contains(t, string(exp.Content), `@article{smith\textunderscore{}2020,`)

	_, err = svc.Render(ctx, p.ID, "ris")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.ArchiveProject(ctx, p.ID, FormatCSV, "manual")
	assert.ErrorIs(t, err, ErrArchiveDisabled)
}

func TestArchiveAll(t *testing.T) {
	ctx := context.Background()
	cur := newTestCuration(t)
	for _, name := range []string{"One", "Two"} {
		_, err := cur.CreateProject(ctx, name, "", false)
		require.NoError(t, err)
	}
	up := &memoryUploader{objects: map[string]string{}}
	archive := storage.NewArchive(up, &config.Config{S3URL: "https://s3.example.org", S3Bucket: "curation"}, "exports")
	svc := NewExportService(cur, archive, zap.NewNop())

	n, err := svc.ArchiveAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Len(t, up.objects, 4)
	for key := range up.objects {
		assert.True(t, strings.HasPrefix(key, "exports/"), key)
	}

	projects, err := cur.ListProjects(ctx)
	require.NoError(t, err)
	archives, err := svc.ListArchives(ctx, projects[0].ID)
	require.NoError(t, err)
	require.Len(t, archives, 2)
	assert.Equal(t, "nightly", archives[0].Trigger)
	assert.Contains(t, archives[0].S3Link, "https://s3.example.org/curation/exports/")

	up.err = errors.New("bucket gone")
	_, err = svc.ArchiveProject(ctx, projects[0].ID, FormatBibTeX, "manual")
	assert.ErrorIs(t, err, ErrUpstream)
}
