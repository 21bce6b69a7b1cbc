// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package respond_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/autolist/internal/platform/apperr"
	"github.com/taibuivan/autolist/internal/platform/ctxutil"
	"github.com/taibuivan/autolist/internal/platform/respond"
)

/*
TestError maps application errors to their status and envelope.
*/
func TestError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantError  string
	}{
		{"not found", apperr.NotFound("Record"), http.StatusNotFound, apperr.CodeNotFound, "Record not found"},
		{"conflict", apperr.Conflict("listing mismatch"), http.StatusConflict, "CONFLICT", "listing mismatch"},
		{"upstream rejected", apperr.UpstreamRejected("marketplace", 400, `{"error":"bad"}`), http.StatusUnprocessableEntity, apperr.CodeUpstreamRejected, ""},
		{"plain error hidden", errors.New("pq: relation missing"), http.StatusInternalServerError, "INTERNAL_ERROR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodPost, "/api/v1/records/5/publish", nil)
			ctx := ctxutil.WithRequestID(request.Context(), "req-1")
			ctx = ctxutil.WithLogger(ctx, slog.New(slog.NewTextHandler(io.Discard, nil)))
			request = request.WithContext(ctx)

			rec := httptest.NewRecorder()
			respond.Error(rec, request, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body respond.ErrorEnvelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, "req-1", body.RequestID)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body.Error)
			}
			assert.NotContains(t, body.Error, "pq:")
		})
	}
}

/*
TestError_Details keeps validation details in the envelope.
*/
func TestError_Details(t *testing.T) {
	rec := httptest.NewRecorder()
	respond.Error(rec, httptest.NewRequest(http.MethodPost, "/", nil),
		apperr.ValidationError("record is not eligible", apperr.FieldError{Field: "photos", Message: "at least 3 photos required"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body respond.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Details, 1)
	assert.Equal(t, "photos", body.Details[0].Field)
	assert.Empty(t, body.RequestID)
}

func TestList(t *testing.T) {
	rec := httptest.NewRecorder()
	respond.List(rec, []int64{1, 2}, 2)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":[1,2],"count":2}`, rec.Body.String())
}
