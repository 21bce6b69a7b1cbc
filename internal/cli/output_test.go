// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/autolist/internal/platform/apperr"
)

func TestOutputFormatter_SuccessJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Success([]int64{5012, 5013}))

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
	assert.Equal(t, []any{float64(5012), float64(5013)}, resp.Data)
}

func TestOutputFormatter_SuccessText(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	require.NoError(t, f.Success("migrations applied"))
	assert.Equal(t, "migrations applied\n", buf.String())

	buf.Reset()
	require.NoError(t, f.Success(map[string]int{"features": 42}))
	assert.Contains(t, buf.String(), `"features": 42`)
}

func TestOutputFormatter_Failure(t *testing.T) {
	cause := apperr.ValidationError("record is not eligible",
		apperr.FieldError{Field: "stage", Message: "stage C4:NEW is not publishable"})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		f := &OutputFormatter{Format: "json", Writer: &buf}

		err := f.Failure("publish failed", cause)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.ErrorIs(t, err, cause)

		var resp Response
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		assert.Equal(t, "error", resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, apperr.CodeValidation, resp.Error.Code)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "stage", resp.Error.Details[0].Field)
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		f := &OutputFormatter{Format: "text", Writer: &buf}

		err := f.Failure("publish failed", cause)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, buf.String(), "publish failed: [VALIDATION_ERROR] record is not eligible")
		assert.Contains(t, buf.String(), "  - stage: stage C4:NEW is not publishable")
	})

	t.Run("plain error", func(t *testing.T) {
		var buf bytes.Buffer
		f := &OutputFormatter{Format: "text", Writer: &buf}

		_ = f.Failure("tick failed", errors.New("boom"))
		assert.Equal(t, "tick failed: [ERROR] boom\n", buf.String())
	})
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "bad flag", nil)))
	assert.Equal(t, "bad flag", WrapExitError(ExitCommandError, "bad flag", nil).Error())
	assert.Equal(t, "wrap: inner", WrapExitError(ExitFailure, "wrap", errors.New("inner")).Error())
}
