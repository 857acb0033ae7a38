package s3

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/de-tools/report-export/pkg/export"
	"github.com/rs/zerolog"
)

const DefaultRegion = "us-east-1"

// PutObjectAPI is the part of the S3 client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Uploader struct {
	client PutObjectAPI
	bucket string
	prefix string
}

func LoadConfig(ctx context.Context, profile string) (awssdk.Config, error) {
	opts := []func(*config.LoadOptions) error{config.WithDefaultRegion(DefaultRegion)}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return awssdk.Config{}, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	return cfg, nil
}

func NewUploader(cfg awssdk.Config, bucket, prefix string) (*Uploader, error) {
	return NewUploaderWithClient(s3.NewFromConfig(cfg), bucket, prefix)
}

func NewUploaderWithClient(client PutObjectAPI, bucket, prefix string) (*Uploader, error) {
	if client == nil {
		return nil, fmt.Errorf("s3 client is nil")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	return &Uploader{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}, nil
}

// Key is the object key an artifact is stored under.
func (u *Uploader) Key(artifact *export.Artifact) string {
	if u.prefix == "" {
		return artifact.Filename
	}
	return path.Join(u.prefix, artifact.Filename)
}

// Deliver uploads the artifact and returns its s3:// location.
func (u *Uploader) Deliver(ctx context.Context, artifact *export.Artifact) (string, error) {
	key := u.Key(artifact)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             awssdk.String(u.bucket),
		Key:                awssdk.String(key),
		Body:               bytes.NewReader(artifact.Content),
		ContentLength:      awssdk.Int64(int64(len(artifact.Content))),
		ContentType:        awssdk.String(artifact.MIMEType),
		ContentDisposition: awssdk.String(fmt.Sprintf("attachment; filename=%q", artifact.Filename)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to bucket %s: %w", key, u.bucket, err)
	}

	location := fmt.Sprintf("s3://%s/%s", u.bucket, key)
	zerolog.Ctx(ctx).Info().
		Str("location", location).
		Int("bytes", len(artifact.Content)).
		Msg("artifact uploaded")
	return location, nil
}
