// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package objectstore wraps an S3-compatible bucket (MinIO, Cloudflare R2, AWS S3).
//
// It is used to keep marketplace payloads that could not be posted, so an
// operator can replay them once the account balance is topped up.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Options holds the connection settings for a bucket.
type Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Bucket is a single S3 bucket.
type Bucket struct {
	client *minio.Client
	name   string
}

// Open connects to the endpoint and creates the bucket when it does not exist yet.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (*Bucket, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("objectstore: endpoint is required")
	}
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, fmt.Errorf("objectstore: bucket is required")
	}

	// minio expects a bare host[:port]
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore: client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("objectstore: bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, fmt.Errorf("objectstore: make bucket: %w", err)
		}
		logger.Info("objectstore_bucket_created", slog.String("bucket", opts.Bucket))
	}

	return &Bucket{client: client, name: opts.Bucket}, nil
}

// Put stores data under key and returns an s3:// reference to it.
func (b *Bucket) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := b.client.PutObject(ctx, b.name, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("objectstore: put %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", b.name, key), nil
}
