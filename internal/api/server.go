// Package api exposes the HTTP interface for the analysis service.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seoscout/seoscout/internal/history"
	"github.com/seoscout/seoscout/internal/metrics"
	"github.com/seoscout/seoscout/internal/report"
	"github.com/seoscout/seoscout/internal/seo"
	"github.com/seoscout/seoscout/internal/tasks"
)

const (
	serviceName    = "seoscout"
	serviceVersion = "2.0.0"
)

// Analyzer runs one full analysis.
type Analyzer interface {
	Analyze(ctx context.Context, url string, useAI bool) (seo.AnalysisResult, error)
}

// Server wires HTTP handlers to the registry, store and analyzer.
type Server struct {
	router   chi.Router
	registry *tasks.Registry
	store    history.Store
	analyzer Analyzer
	renderer *report.Renderer
	files    *report.FileStore
	idGen    seo.IDGenerator
	clock    seo.Clock
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	registry *tasks.Registry,
	store history.Store,
	analyzer Analyzer,
	renderer *report.Renderer,
	files *report.FileStore,
	idGen seo.IDGenerator,
	clock seo.Clock,
	logger *zap.Logger,
) *Server {
	s := &Server{
		registry: registry,
		store:    store,
		analyzer: analyzer,
		renderer: renderer,
		files:    files,
		idGen:    idGen,
		clock:    clock,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))

	r.Get("/", s.index)
	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Post("/analyze", s.analyze)
	r.Post("/analyze/async", s.analyzeAsync)
	r.Route("/task/{task_id}", func(r chi.Router) {
		r.Get("/status", s.taskStatus)
		r.Get("/result", s.taskResult)
	})

	r.Get("/report/{analysis_id}", s.reportPage)
	r.Get("/download/{analysis_id}", s.downloadReport)
	r.Get("/batch-report", s.batchReport)

	r.Get("/history", s.historyPage)
	r.Post("/clear_history", s.clearHistory)
	r.Get("/api/stats", s.stats)
	r.Delete("/api/history/{analysis_id}", s.deleteHistory)

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": s.clock.Now().UTC().Format(time.RFC3339),
		"service":   serviceName,
		"version":   serviceVersion,
	})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = r.URL.Path
			}
			metrics.ObserveHTTPRequest(r.Method, route, ww.status, time.Since(start))
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("panic", rec))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type requestIDKey struct{}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		conn, buf, err := h.Hijack()
		if err != nil {
			return nil, nil, fmt.Errorf("hijack connection: %w", err)
		}
		return conn, buf, nil
	}
	return nil, nil, errors.New("hijacker not supported")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		zap.L().Error("write HTML failed", zap.Error(err))
	}
}
