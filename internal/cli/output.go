// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/taibuivan/autolist/internal/platform/apperr"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The operation ran and failed (validation, upstream rejection)
	ExitCommandError = 2 // Command error (bad flags, configuration, unreachable database)
)

// ExitError carries the exit code a command should end with.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter prints command results as text or JSON.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Response is the JSON envelope of every command.
type Response struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError mirrors the HTTP error envelope.
type CLIError struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details []apperr.FieldError `json:"details,omitempty"`
}

// Success prints data.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.writeJSON(Response{Status: "ok", Data: data})
	}

	switch v := data.(type) {
	case fmt.Stringer:
		_, err := fmt.Fprintln(f.Writer, v.String())
		return err
	case string:
		_, err := fmt.Fprintln(f.Writer, v)
		return err
	default:
		encoder := json.NewEncoder(f.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	}
}

// Failure prints err and returns it wrapped with ExitFailure.
func (f *OutputFormatter) Failure(message string, err error) error {
	cliErr := &CLIError{Code: "ERROR", Message: err.Error()}
	if ae := apperr.As(err); ae != nil {
		cliErr.Code = ae.Code
		cliErr.Message = ae.Message
		cliErr.Details = ae.Details
	}

	if f.Format == "json" {
		if werr := f.writeJSON(Response{Status: "error", Error: cliErr}); werr != nil {
			return werr
		}
	} else {
		fmt.Fprintf(f.Writer, "%s: [%s] %s\n", message, cliErr.Code, cliErr.Message)
		for _, d := range cliErr.Details {
			fmt.Fprintf(f.Writer, "  - %s: %s\n", d.Field, d.Message)
		}
	}
	return WrapExitError(ExitFailure, message, err)
}

func (f *OutputFormatter) writeJSON(response Response) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}
