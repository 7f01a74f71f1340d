// Package export delivers CSV exports produced by the table controller to
// a local directory or an S3 compatible bucket.
package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"crmdash/internal/config"
	"crmdash/internal/table"
)

// Sink stores one export and reports where it went.
type Sink interface {
	Write(ctx context.Context, exp table.Export) (location string, err error)
}

// New picks the S3 sink when toS3 is set, the directory sink otherwise.
func New(ctx context.Context, cfg config.ExportConfig, toS3 bool) (Sink, error) {
	if toS3 {
		return NewS3Sink(ctx, cfg.S3)
	}
	return DirSink{Dir: cfg.Dir}, nil
}

// DirSink writes exports as files into Dir.
type DirSink struct {
	Dir string
}

// Write implements Sink.
func (s DirSink) Write(_ context.Context, exp table.Export) (string, error) {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}
	target := filepath.Join(dir, filepath.Base(exp.Filename))
	if err := os.WriteFile(target, exp.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return target, nil
}

// putObjectAPI is the slice of the S3 client the sink needs.
type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads exports as objects under Prefix.
type S3Sink struct {
	client putObjectAPI
	bucket string
	prefix string
}

// NewS3Sink builds a sink from the default AWS credential chain. Endpoint
// and PathStyle allow MinIO and other compatible stores.
func NewS3Sink(ctx context.Context, cfg config.S3Config) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &S3Sink{client: client, bucket: cfg.Bucket, prefix: strings.Trim(cfg.Prefix, "/")}, nil
}

func (s *S3Sink) key(filename string) string {
	if s.prefix == "" {
		return filename
	}
	return path.Join(s.prefix, filename)
}

// Write implements Sink.
func (s *S3Sink) Write(ctx context.Context, exp table.Export) (string, error) {
	key := s.key(exp.Filename)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(exp.Data),
		ContentType: aws.String(exp.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload export: %w", err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}
