// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr maps pgx errors onto application errors so repositories
// never leak SQL details to the API or CLI.
package dberr

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/autolist/internal/platform/apperr"
)

// ErrNotFound is returned when a queried or updated row does not exist.
var ErrNotFound = apperr.NotFound("Resource")

// SQLSTATE codes the repositories care about.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	queryCanceled       = "57014" // statement_timeout
	lockNotAvailable    = "55P03"
)

// Wrap classifies err. action names the operation for logs, e.g.
// "upsert publish state".
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return apperr.Conflict("Duplicate entry on " + action)
		case foreignKeyViolation:
			return apperr.ValidationError("Unknown CRM record on " + action)
		case queryCanceled, lockNotAvailable:
			return busy(action, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return busy(action, err)
	}

	return apperr.Internal(fmt.Errorf("%s: %w", action, err))
}

func busy(action string, cause error) error {
	appErr := apperr.ServiceUnavailable("Database busy on " + action)
	appErr.Cause = cause
	return appErr
}

// IsNotFound reports whether err is the not-found mapping produced by [Wrap].
func IsNotFound(err error) bool {
	return apperr.HasCode(err, apperr.CodeNotFound)
}
