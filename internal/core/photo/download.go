// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package photo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrOriginAuth is returned when the photo origin answers 401 or 403, which
// usually means the CRM webhook token has expired.
var ErrOriginAuth = errors.New("photo: origin refused access")

// ErrEmpty is returned for a 2xx answer without content.
var ErrEmpty = errors.New("photo: empty body")

// ErrTooLarge is returned when a photo exceeds the download cap.
var ErrTooLarge = errors.New("photo: body exceeds size limit")

// maxPhotoBytes caps a single download unless [HTTPFetcher.WithMaxBytes] says otherwise.
const maxPhotoBytes = 20 << 20

// StatusError is a non-2xx answer from the origin.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string { return fmt.Sprintf("photo: origin answered %d", e.Status) }

// HTTPFetcher downloads photos over HTTP.
//
// CRM file endpoints sometimes answer with JSON carrying the real location in
// "result" (or "url"); that location is followed once.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPFetcher returns a fetcher with the given per-request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}, maxBytes: maxPhotoBytes}
}

// WithMaxBytes sets the download cap; n <= 0 keeps the current one.
func (f *HTTPFetcher) WithMaxBytes(n int64) *HTTPFetcher {
	if n > 0 {
		f.maxBytes = n
	}
	return f
}

// Fetch downloads url and returns its bytes.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	body, contentType, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}

	if strings.Contains(strings.ToLower(contentType), "json") {
		location := redirectLocation(body)
		if location == "" {
			return nil, fmt.Errorf("photo: JSON answer without a file location")
		}
		body, _, err = f.get(ctx, location)
		if err != nil {
			return nil, err
		}
	}

	if len(body) == 0 {
		return nil, ErrEmpty
	}
	return body, nil
}

func (f *HTTPFetcher) get(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("photo: build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("photo: download: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, "", fmt.Errorf("%w: %w", ErrOriginAuth, &StatusError{Status: resp.StatusCode})
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, "", &StatusError{Status: resp.StatusCode}
	}

	// One byte past the cap tells a full-size photo from a cut one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("photo: read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, "", fmt.Errorf("%w (%d bytes)", ErrTooLarge, f.maxBytes)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// redirectLocation reads "result", "url" or "result.url" from a JSON answer.
func redirectLocation(body []byte) string {
	var answer map[string]json.RawMessage
	if json.Unmarshal(body, &answer) != nil {
		return ""
	}

	for _, key := range []string{"result", "url"} {
		raw, ok := answer[key]
		if !ok {
			continue
		}
		var text string
		if json.Unmarshal(raw, &text) == nil && strings.HasPrefix(text, "http") {
			return text
		}
		var nested struct {
			URL string `json:"url"`
		}
		if json.Unmarshal(raw, &nested) == nil && strings.HasPrefix(nested.URL, "http") {
			return nested.URL
		}
	}
	return ""
}
