package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"jokes-web/internal/metrics"
	"jokes-web/pkg/logger"

	"github.com/google/uuid"
)

const (
	methodOverrideField  = "_method"
	methodOverrideHeader = "X-HTTP-Method-Override"
	requestIDHeader      = "X-Request-ID"
)

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		ctx := logger.WithContext(r.Context(), "request_id", id)
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument records the access log line and request metrics. The route label
// is the matched mux pattern, so it must wrap the mux on the same request.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		metrics.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		metrics.RequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())

		logger.InfoContext(r.Context(), "HTTP request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rec.status),
			logger.Duration("elapsed", elapsed),
		)
	})
}

// methodOverride lets an HTML form POST act as PUT or DELETE, signalled by
// the _method form field or the X-HTTP-Method-Override header.
func methodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			override := r.Header.Get(methodOverrideHeader)
			if override == "" {
				if err := r.ParseForm(); err == nil {
					override = r.PostForm.Get(methodOverrideField)
				}
			}

			switch m := strings.ToUpper(strings.TrimSpace(override)); m {
			case http.MethodPut, http.MethodDelete:
				r.Method = m
			}
		}
		next.ServeHTTP(w, r)
	})
}
