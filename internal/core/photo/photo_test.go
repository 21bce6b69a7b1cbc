// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package photo_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/autolist/internal/core/photo"
	"github.com/taibuivan/autolist/internal/platform/apperr"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingUploader hands out sequential ids and remembers what it received.
type recordingUploader struct {
	names []string
	fail  map[string]bool
}

func (u *recordingUploader) UploadImage(_ context.Context, filename string, data []byte) (string, error) {
	if u.fail[string(data)] {
		return "", apperr.UpstreamRejected("Marketplace", http.StatusBadRequest, "bad image")
	}
	u.names = append(u.names, filename)
	return "img-" + string(data), nil
}

func photoServer(t *testing.T) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch request.URL.Path {
		case "/a.jpg", "/b.jpg", "/c.jpg":
			_, _ = io.WriteString(writer, request.URL.Path[1:2])
		case "/forbidden.jpg":
			writer.WriteHeader(http.StatusForbidden)
		case "/missing.jpg":
			writer.WriteHeader(http.StatusNotFound)
		case "/getFile/":
			writer.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(writer, `{"result": "`+server.URL+`/b.jpg"}`)
		case "/empty.jpg":
		default:
			writer.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

/*
TestPipeline_BestEffort skips the failing photo and keeps the order of the rest.
*/
func TestPipeline_BestEffort(t *testing.T) {
	server := photoServer(t)
	uploader := &recordingUploader{}
	pipeline := photo.NewPipeline(photo.NewHTTPFetcher(5*time.Second), uploader, discardLogger())

	ids, err := pipeline.Transfer(context.Background(), []string{
		server.URL + "/a.jpg",
		server.URL + "/forbidden.jpg",
		server.URL + "/c.jpg",
	}, photo.BestEffort)

	require.NoError(t, err)
	assert.Equal(t, []string{"img-a", "img-c"}, ids)
	assert.Equal(t, []string{"a.jpg", "c.jpg"}, uploader.names)
}

/*
TestPipeline_Strict aborts on the first failure and names the photo.
*/
func TestPipeline_Strict(t *testing.T) {
	server := photoServer(t)

	tests := []struct {
		name       string
		urls       []string
		failUpload map[string]bool
		wantStatus int
		wantAuth   bool
	}{
		{name: "origin forbids", urls: []string{server.URL + "/a.jpg", server.URL + "/forbidden.jpg"}, wantStatus: http.StatusForbidden, wantAuth: true},
		{name: "origin missing", urls: []string{server.URL + "/missing.jpg", server.URL + "/a.jpg"}, wantStatus: http.StatusNotFound},
		{name: "empty body", urls: []string{server.URL + "/empty.jpg"}},
		{name: "upload rejected", urls: []string{server.URL + "/a.jpg", server.URL + "/b.jpg"}, failUpload: map[string]bool{"b": true}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pipeline := photo.NewPipeline(photo.NewHTTPFetcher(5*time.Second), &recordingUploader{fail: tc.failUpload}, discardLogger())

			ids, err := pipeline.Transfer(context.Background(), tc.urls, photo.Strict)
			require.Error(t, err)
			assert.Nil(t, ids)
			assert.True(t, apperr.HasCode(err, apperr.CodePhotoTransferFailed))

			var transferErr *photo.TransferError
			require.True(t, errors.As(err, &transferErr))
			assert.Equal(t, tc.wantStatus, transferErr.Status)
			assert.Equal(t, tc.wantAuth, errors.Is(err, photo.ErrOriginAuth))
		})
	}
}

/*
TestHTTPFetcher_FollowsJSONLocation follows a JSON "result" once.
*/
func TestHTTPFetcher_FollowsJSONLocation(t *testing.T) {
	server := photoServer(t)
	data, err := photo.NewHTTPFetcher(5*time.Second).Fetch(context.Background(), server.URL+"/getFile/?fileId=9")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), data)
}

/*
TestHTTPFetcher_SizeLimit refuses bodies past the cap instead of truncating them.
*/
func TestHTTPFetcher_SizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = io.WriteString(writer, strings.Repeat("x", 16))
	}))
	t.Cleanup(server.Close)

	tests := []struct {
		name    string
		limit   int64
		wantErr bool
	}{
		{"over_limit", 15, true},
		{"exact_limit", 16, false},
		{"under_limit", 1024, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := photo.NewHTTPFetcher(5*time.Second).WithMaxBytes(tt.limit).Fetch(context.Background(), server.URL+"/big.jpg")
			if tt.wantErr {
				require.ErrorIs(t, err, photo.ErrTooLarge)
				assert.Nil(t, data)
				return
			}
			require.NoError(t, err)
			assert.Len(t, data, 16)
		})
	}
}

/*
TestFilename derives upload names from photo URLs.
*/
func TestFilename(t *testing.T) {
	assert.Equal(t, "car.png", photo.Filename("https://cdn.example.com/x/car.png?size=big"))
	assert.Equal(t, "image.jpg", photo.Filename("https://crm.example.com/rest/crm.controller.item.getFile/?id=1"))
	assert.Equal(t, "image.jpg", photo.Filename("::"))
}
