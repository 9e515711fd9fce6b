package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metacurate/config"
)

type fakeUploader struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func (f *fakeUploader) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func TestArchiveUploadFile(t *testing.T) {
	up := &fakeUploader{objects: map[string][]byte{}, types: map[string]string{}}
	a := NewArchive(up, &config.Config{S3URL: "https://s3.example.org/", S3Bucket: "curation"}, "/exports/")

	key := a.Key("p1", "", "2024-01-02.csv")
	assert.Equal(t, "exports/p1/2024-01-02.csv", key)

	link, err := a.UploadFile(context.Background(), key, "text/csv", []byte("a,b"))
	require.NoError(t, err)
	assert.Equal(t, "https://s3.example.org/curation/exports/p1/2024-01-02.csv", link)
	assert.Equal(t, []byte("a,b"), up.objects["curation/exports/p1/2024-01-02.csv"])
	assert.Equal(t, "text/csv", up.types[key])
}

func TestArchiveUploadError(t *testing.T) {
	a := NewArchive(&fakeUploader{err: errors.New("boom")}, &config.Config{S3Bucket: "b"}, "")
	_, err := a.UploadFile(context.Background(), a.Key("x"), "text/plain", nil)
	assert.ErrorContains(t, err, "boom")
}
