// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/taibuivan/autolist/internal/core/marketplace"
	"github.com/taibuivan/autolist/internal/platform/objectstore"
)

// DraftStore keeps payloads that were built but not posted, so an operator
// can replay them once the account is funded.
type DraftStore interface {
	// Save stores the payload and returns a reference to it.
	Save(ctx context.Context, sourceID int64, payload *marketplace.Advert) (string, error)
}

// draftName sorts drafts of one record by creation time.
func draftName(sourceID int64) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("publish: draft name: %w", err)
	}
	return fmt.Sprintf("draft_%d_%s.json", sourceID, id), nil
}

func encodeDraft(payload *marketplace.Advert) ([]byte, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("publish: encode draft: %w", err)
	}
	return append(data, '\n'), nil
}

// LocalDrafts writes drafts as JSON files into a directory.
type LocalDrafts struct {
	dir string
}

// NewLocalDrafts returns a store rooted at dir; the directory is created on first save.
func NewLocalDrafts(dir string) *LocalDrafts {
	return &LocalDrafts{dir: dir}
}

// Save writes the payload to a new file and returns its path.
func (d *LocalDrafts) Save(_ context.Context, sourceID int64, payload *marketplace.Advert) (string, error) {
	data, err := encodeDraft(payload)
	if err != nil {
		return "", err
	}

	name, err := draftName(sourceID)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("publish: create draft dir: %w", err)
	}

	path := filepath.Join(d.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("publish: write draft: %w", err)
	}
	return path, nil
}

// BucketDrafts writes drafts into object storage under the drafts/ prefix.
type BucketDrafts struct {
	bucket *objectstore.Bucket
}

// NewBucketDrafts returns a store backed by bucket.
func NewBucketDrafts(bucket *objectstore.Bucket) *BucketDrafts {
	return &BucketDrafts{bucket: bucket}
}

// Save uploads the payload and returns its s3:// reference.
func (d *BucketDrafts) Save(ctx context.Context, sourceID int64, payload *marketplace.Advert) (string, error) {
	data, err := encodeDraft(payload)
	if err != nil {
		return "", err
	}
	name, err := draftName(sourceID)
	if err != nil {
		return "", err
	}
	return d.bucket.Put(ctx, "drafts/"+name, data, "application/json")
}
