// Package storage bündelt die externen Speicher: S3 für Export-Archive und Backups,
// Redis für den Sitzungszustand der Kurationstabelle.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"metacurate/config"
)

// Uploader ist der Teil des S3-Clients, den die Archivierung braucht.
type Uploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client erstellt einen S3-Client für einen S3-kompatiblen Endpunkt.
func NewS3Client(cfg *config.Config) (*s3.Client, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               cfg.S3URL,
				SigningRegion:     cfg.S3Region,
				HostnameImmutable: true,
			}, nil
		},
	)
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3Key, cfg.S3Secret, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg), nil
}

// Archive lädt Dateien unter einem Präfix in einen Bucket.
type Archive struct {
	Client  Uploader
	BaseURL string
	Bucket  string
	Prefix  string
}

// NewArchive erstellt das Export-Archiv aus der Konfiguration.
func NewArchive(client Uploader, cfg *config.Config, prefix string) *Archive {
	return &Archive{Client: client, BaseURL: cfg.S3URL, Bucket: cfg.S3Bucket, Prefix: prefix}
}

// Key setzt den Objektschlüssel aus Präfix und Teilen zusammen.
func (a *Archive) Key(parts ...string) string {
	all := make([]string, 0, len(parts)+1)
	if p := strings.Trim(a.Prefix, "/"); p != "" {
		all = append(all, p)
	}
	for _, part := range parts {
		if part = strings.Trim(part, "/"); part != "" {
			all = append(all, part)
		}
	}
	return strings.Join(all, "/")
}

// UploadFile lädt eine Datei ins S3 hoch und gibt den Link zurück.
func (a *Archive) UploadFile(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := a.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload %s: %w", key, err)
	}
	link := fmt.Sprintf("%s/%s/%s", strings.TrimRight(a.BaseURL, "/"), a.Bucket, key)
	return link, nil
}
