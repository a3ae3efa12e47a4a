package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/babylonlabs-io/custody-engine/internal/api/handlers"
	"github.com/babylonlabs-io/custody-engine/internal/auth"
	"github.com/babylonlabs-io/custody-engine/internal/observability/metrics"
	"github.com/babylonlabs-io/custody-engine/internal/observability/tracing"
	"github.com/babylonlabs-io/custody-engine/internal/types"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// traceMiddleware tags the request logger with the caller's trace id, or a
// fresh one.
func traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := tracing.InjectTraceIDValue(r.Context(), r.Header.Get(tracing.TraceIDHeader))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		// the pattern keeps path params out of the label set
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordAPIRequestDuration(time.Since(start), r.Method, route, status)
	})
}

// authMiddleware verifies the request signature and attaches the caller to
// the context and the request logger.
func authMiddleware(verifier *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := verifier.Verify(r)
			if err != nil {
				status := http.StatusUnauthorized
				if errors.Is(err, auth.ErrBodyTooLarge) {
					status = http.StatusRequestEntityTooLarge
				}
				handlers.WriteErrorResponse(w, r, types.NewError(status, types.Unauthorized, err))
				return
			}

			ctx := auth.WithCaller(r.Context(), caller)
			logger := log.Ctx(ctx).With().Str("caller", caller).Logger()
			next.ServeHTTP(w, r.WithContext(logger.WithContext(ctx)))
		})
	}
}

// adminOnly lets through callers listed in adminKeys. It must run after
// authMiddleware.
func adminOnly(adminKeys []string) func(http.Handler) http.Handler {
	admins := make(map[string]struct{}, len(adminKeys))
	for _, key := range adminKeys {
		admins[key] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, _ := auth.CallerFromContext(r.Context())
			if _, ok := admins[caller]; !ok {
				handlers.WriteErrorResponse(w, r, types.NewErrorWithMsg(
					http.StatusForbidden, types.Forbidden, "caller is not a config admin",
				))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
