// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package middleware

import (
	"net/http"
	"time"

	xglog "github.com/ManuGH/pipview/internal/log"
)

// Logging emits one access log line per request and stores a request-scoped
// logger in the context.
func Logging(next http.Handler) http.Handler {
	base := xglog.WithComponent("api")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := xglog.WithContext(r.Context(), base)
		ctx := logger.WithContext(r.Context())

		sw := wrap(w)
		next.ServeHTTP(sw, r.WithContext(ctx))

		ev := logger.Info()
		if sw.status >= 500 {
			ev = logger.Error()
		} else if sw.status >= 400 {
			ev = logger.Warn()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Int("bytes", sw.bytes).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}
