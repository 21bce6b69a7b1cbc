// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package photo moves listing photos from the CRM to the marketplace.

Each URL is downloaded and re-uploaded in order. Two modes exist:

  - [Strict]: the first failure aborts the transfer. Used on creation, where an
    advert with missing photos must not be posted.
  - [BestEffort]: failures are logged and skipped. Used on refresh, where the
    images feature is only replaced when at least one photo made it.
*/
package photo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/taibuivan/autolist/internal/platform/apperr"
)

// Mode selects how failures are handled.
type Mode int

const (
	Strict Mode = iota
	BestEffort
)

func (m Mode) String() string {
	if m == BestEffort {
		return "best_effort"
	}
	return "strict"
}

// Fetcher downloads one photo.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Uploader stores one photo on the marketplace and returns its id.
type Uploader interface {
	UploadImage(ctx context.Context, filename string, data []byte) (string, error)
}

// TransferError names the photo that failed and the origin status, if any.
type TransferError struct {
	URL    string
	Status int
	Err    error
}

func (e *TransferError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("photo %s: status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("photo %s: %v", e.URL, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// Pipeline transfers photos.
type Pipeline struct {
	fetcher  Fetcher
	uploader Uploader
	logger   *slog.Logger
}

// NewPipeline builds a pipeline.
func NewPipeline(fetcher Fetcher, uploader Uploader, logger *slog.Logger) *Pipeline {
	return &Pipeline{fetcher: fetcher, uploader: uploader, logger: logger}
}

// Transfer downloads and uploads every URL and returns the marketplace image
// ids in input order.
//
// In [Strict] mode the first failure is returned as a PHOTO_TRANSFER_FAILED
// [apperr.AppError] wrapping a [*TransferError], and no ids are returned.
// In [BestEffort] mode the result may be empty.
func (p *Pipeline) Transfer(ctx context.Context, urls []string, mode Mode) ([]string, error) {
	ids := make([]string, 0, len(urls))

	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		id, err := p.transferOne(ctx, u)
		if err == nil {
			ids = append(ids, id)
			continue
		}

		var transferErr *TransferError
		errors.As(err, &transferErr)

		if mode == Strict {
			p.logger.Warn("photo_transfer_aborted",
				slog.String("url", u),
				slog.Int("status", transferErr.Status),
				slog.Any("error", transferErr.Err),
			)
			return nil, apperr.PhotoTransferFailed(u, transferErr.Status, transferErr)
		}

		p.logger.Warn("photo_skipped",
			slog.String("url", u),
			slog.Int("status", transferErr.Status),
			slog.Bool("origin_auth", errors.Is(err, ErrOriginAuth)),
			slog.Any("error", transferErr.Err),
		)
	}

	p.logger.Debug("photos_transferred",
		slog.String("mode", mode.String()),
		slog.Int("requested", len(urls)),
		slog.Int("uploaded", len(ids)),
	)
	return ids, nil
}

// transferOne always fails with a *TransferError.
func (p *Pipeline) transferOne(ctx context.Context, u string) (string, error) {
	data, err := p.fetcher.Fetch(ctx, u)
	if err != nil {
		transferErr := &TransferError{URL: u, Err: err}
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			transferErr.Status = statusErr.Status
		}
		return "", transferErr
	}

	id, err := p.uploader.UploadImage(ctx, Filename(u), data)
	if err != nil {
		return "", &TransferError{URL: u, Err: err}
	}
	return id, nil
}

// Filename derives an upload name from a photo URL.
func Filename(rawURL string) string {
	const fallback = "image.jpg"
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fallback
	}
	name := path.Base(parsed.Path)
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif":
		return name
	}
	return fallback
}
