package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBucket struct {
	objects []types.Object
	prefix  string
	deleted []string
	failOn  string
}

func (f *fakeBucket) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.prefix = aws.ToString(in.Prefix)
	return &s3.ListObjectsV2Output{Contents: f.objects}, nil
}

func (f *fakeBucket) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	key := aws.ToString(in.Key)
	if key == f.failOn {
		return nil, errors.New("access denied")
	}
	f.deleted = append(f.deleted, key)
	return &s3.DeleteObjectOutput{}, nil
}

func backupObject(key string, age time.Duration) types.Object {
	return types.Object{Key: aws.String(key), LastModified: aws.Time(time.Now().Add(-age))}
}

func TestRotateBackupsKeepsNewest(t *testing.T) {
	bucket := &fakeBucket{objects: []types.Object{
		backupObject("backups/c", 3*time.Hour),
		backupObject("backups/a", 1*time.Hour),
		backupObject("backups/d", 4*time.Hour),
		backupObject("backups/b", 2*time.Hour),
	}}
	deleted, err := rotateBackups(context.Background(), bucket, "curation", "backups/", 2, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Equal(t, "backups/", bucket.prefix)
	assert.ElementsMatch(t, []string{"backups/c", "backups/d"}, bucket.deleted)
}

func TestRotateBackupsNothingToDo(t *testing.T) {
	bucket := &fakeBucket{objects: []types.Object{backupObject("backups/a", time.Hour)}}
	deleted, err := rotateBackups(context.Background(), bucket, "curation", "backups/", 4, zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.Empty(t, bucket.deleted)
}

func TestRotateBackupsContinuesAfterDeleteError(t *testing.T) {
	bucket := &fakeBucket{
		objects: []types.Object{
			backupObject("backups/a", time.Hour),
			backupObject("backups/b", 2*time.Hour),
			backupObject("backups/c", 3*time.Hour),
		},
		failOn: "backups/b",
	}
	deleted, err := rotateBackups(context.Background(), bucket, "curation", "backups/", 1, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.Equal(t, []string{"backups/c"}, bucket.deleted)
}
