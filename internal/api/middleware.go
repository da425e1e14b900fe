package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"erate-tracker/internal/common/auth"
	apperrors "erate-tracker/internal/common/errors"
	apphttp "erate-tracker/internal/common/http"
	"erate-tracker/internal/common/metrics"
	"erate-tracker/internal/common/observability"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, span := s.deps.Observability.StartSpan(r.Context(), route,
			attribute.String("http.method", r.Method),
			attribute.String("http.path", r.URL.Path),
		)
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		elapsed := time.Since(start)
		span.SetAttributes(
			attribute.Int("http.status_code", rec.status),
			attribute.String("http.status_class", observability.StatusClass(rec.status)),
		)
		if rec.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(rec.status))
		}

		metrics.APIRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		metrics.APIRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
		s.deps.Observability.RecordRequest(ctx, route, rec.status, elapsed)

		s.logger.Debug("request served", map[string]interface{}{
			"traceId":    span.SpanContext().TraceID().String(),
			"route":      route,
			"status":     rec.status,
			"durationMs": elapsed.Milliseconds(),
		})
	})
}

// authenticate resolves the bearer token into a principal. The token is
// only read, never refreshed or revoked.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			apphttp.WriteError(w, apperrors.NewAuthenticationError("missing bearer token"))
			return
		}

		principal, err := s.deps.Auth.Authenticate(r.Context(), token)
		if err != nil {
			s.logger.Warn("authentication failed", map[string]interface{}{
				"path":  r.URL.Path,
				"error": err.Error(),
			})
			apphttp.WriteError(w, err)
			return
		}

		trace.SpanFromContext(r.Context()).SetAttributes(
			attribute.String("account.id", principal.AccountID),
			attribute.String("account.role", string(principal.Role)),
		)
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
