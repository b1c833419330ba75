// Package server exposes report generation over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"incidentsum/internal/logger"
	"incidentsum/internal/report"
	"incidentsum/internal/telemetry"
	"incidentsum/pkg/models"
)

// Processor turns a request into a report record.
type Processor interface {
	Process(ctx context.Context, req models.IncidentRequest) *models.ReportRecord
}

// Recorder persists generated records.
type Recorder interface {
	WriteRecords(records []*models.ReportRecord) error
}

// History lists stored records.
type History interface {
	Recent(limit int) ([]*models.ReportRecord, error)
}

// Config configures the HTTP server.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBodyBytes int64
}

// Server serves the report API.
type Server struct {
	processor Processor
	recorder  Recorder
	history   History
	gatherer  prometheus.Gatherer
	router    *mux.Router
	maxBody   int64
	server    *http.Server
}

// Option configures optional server collaborators.
type Option func(*Server)

// WithRecorder persists every generated record.
func WithRecorder(r Recorder) Option {
	return func(s *Server) { s.recorder = r }
}

// WithHistory enables GET /v1/reports.
func WithHistory(h History) Option {
	return func(s *Server) { s.history = h }
}

// WithMetrics enables GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// New creates a server.
func New(cfg Config, processor Processor, opts ...Option) *Server {
	s := &Server{
		processor: processor,
		router:    mux.NewRouter(),
		maxBody:   cfg.MaxBodyBytes,
	}
	if s.maxBody <= 0 {
		s.maxBody = 1 << 20
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Router returns the HTTP router.
func (s *Server) Router() *mux.Router {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/reports", s.handleGenerate).Methods(http.MethodPost)
	if s.history != nil {
		api.HandleFunc("/reports", s.handleHistory).Methods(http.MethodGet)
	}

	if s.gatherer != nil {
		s.router.Handle("/metrics", telemetry.Handler(s.gatherer)).Methods(http.MethodGet)
	}

	s.router.Use(loggingMiddleware)
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	logger.Infof("HTTP server listening on %s", s.server.Addr)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGenerate answers 200 with the canonical report for both success and
// error reports. Only an unreadable body is a client error.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req models.IncidentRequest
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Source == "" {
		req.Source = "http"
	}
	if req.ReceivedAt.IsZero() {
		req.ReceivedAt = time.Now().UTC()
	}

	rec := s.processor.Process(r.Context(), req)
	if s.recorder != nil {
		if err := s.recorder.WriteRecords([]*models.ReportRecord{rec}); err != nil {
			logger.Errorf("Failed to store report %s: %v", rec.ID, err)
		}
	}

	out, err := report.Encode(rec.Report)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Report-ID", rec.ID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	records, err := s.history.Recent(limit)
	if err != nil {
		logger.Errorf("Failed to load report history: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history unavailable"})
		return
	}
	if records == nil {
		records = []*models.ReportRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debugf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
