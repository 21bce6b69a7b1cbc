// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package middleware provides the HTTP chain in front of the admin API.

Order matters and is fixed by the router:

  - RequestID and Trace: correlation id and one OpenTelemetry span per request.
  - StructuredLogger: per-request slog logger in the context, one line per request.
  - Trigger: records who called, so publish logs distinguish CRM webhooks from operators.
  - RateLimit: per-IP token bucket.
  - PanicRecovery and CORS.
*/
package middleware

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/taibuivan/autolist/internal/platform/constants"
	"github.com/taibuivan/autolist/internal/platform/ctxutil"
	"github.com/taibuivan/autolist/internal/platform/tracing"
)

// # Request Tracing

// RequestID keeps the caller's X-Request-ID or assigns a UUIDv7.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			requestID := request.Header.Get(constants.HeaderXRequestID)
			if requestID == "" {
				requestID = newRequestID()
			}

			writer.Header().Set(constants.HeaderXRequestID, requestID)
			next.ServeHTTP(writer, request.WithContext(ctxutil.WithRequestID(request.Context(), requestID)))
		})
	}
}

func newRequestID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// Trace opens a span around each request.
func Trace() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ctx, span := tracing.StartSpan(request.Context(), "http "+request.Method,
				attribute.String("http.method", request.Method),
				attribute.String("http.target", request.URL.Path),
				attribute.String("request.id", ctxutil.GetRequestID(request.Context())),
			)
			defer span.End()

			recorder := wrap(writer)
			next.ServeHTTP(recorder, request.WithContext(ctx))
			span.SetAttributes(attribute.Int("http.status_code", recorder.status))
		})
	}
}

// # Activity Logging

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func wrap(writer http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: writer, status: http.StatusOK}
}

func (recorder *statusRecorder) WriteHeader(code int) {
	recorder.status = code
	recorder.ResponseWriter.WriteHeader(code)
}

// StructuredLogger puts a request-scoped logger into the context and logs
// one line when the request finishes.
func StructuredLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			startTime := time.Now()

			requestLogger := logger.With(
				slog.String("request_id", ctxutil.GetRequestID(request.Context())),
				slog.String("method", request.Method),
				slog.String("path", request.URL.Path),
				slog.String("ip", RealIP(request)),
			)
			ctx := ctxutil.WithLogger(request.Context(), requestLogger)

			recorder := wrap(writer)
			next.ServeHTTP(recorder, request.WithContext(ctx))

			level := slog.LevelInfo
			switch {
			case recorder.status >= 500:
				level = slog.LevelError
			case recorder.status >= 400:
				level = slog.LevelWarn
			}

			requestLogger.Log(ctx, level, "http_request_finished",
				slog.Int("status", recorder.status),
				slog.Int64("latency_ms", time.Since(startTime).Milliseconds()),
				slog.String("trigger", ctxutil.GetTrigger(request.Context())),
			)
		})
	}
}

// # Attempt Origin

var triggerLabel = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{0,31}$`)

// Trigger tags the context with "api" or "api:<label>" from X-Sync-Trigger.
// Malformed labels are ignored.
func Trigger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			trigger := "api"
			if label := strings.ToLower(strings.TrimSpace(request.Header.Get(constants.HeaderXSyncTrigger))); triggerLabel.MatchString(label) {
				trigger = "api:" + label
			}
			next.ServeHTTP(writer, request.WithContext(ctxutil.WithTrigger(request.Context(), trigger)))
		})
	}
}
