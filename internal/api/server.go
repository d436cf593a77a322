// Package api serves an exported results directory over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/wolf-eval/internal/export"
	"github.com/sells-group/wolf-eval/internal/model"
)

// Results is the read-only data the server exposes.
type Results struct {
	Rows     []model.OutcomeRow
	Metrics  map[model.Condition]model.MetricsEntry
	Manifest *export.Manifest
}

// LoadResults reads the files written by an eval run. The manifest is
// optional.
func LoadResults(dir string) (*Results, error) {
	rows, err := export.ReadRows(dir)
	if err != nil {
		return nil, eris.Wrap(err, "api: load outcomes")
	}
	metrics, err := export.ReadMetrics(dir)
	if err != nil {
		return nil, eris.Wrap(err, "api: load metrics")
	}
	res := &Results{Rows: rows, Metrics: metrics}
	if m, err := export.ReadManifest(dir); err == nil {
		res.Manifest = m
	} else {
		zap.L().Debug("api: no manifest", zap.String("dir", dir), zap.Error(err))
	}
	return res, nil
}

// Server routes results requests.
type Server struct {
	router  *chi.Mux
	results *Results
}

// NewServer builds the router over results.
func NewServer(results *Results) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	s := &Server{router: router, results: results}

	router.Get("/health", s.health)
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/metrics", s.metrics)
		r.Get("/manifest", s.manifest)
		r.Get("/outcomes", s.outcomes)
		// Game IDs are archive member names and may contain slashes.
		r.Get("/outcomes/*", s.gameOutcomes)
	})

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) metrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.results.Metrics)
}

func (s *Server) manifest(w http.ResponseWriter, _ *http.Request) {
	if s.results.Manifest == nil {
		writeError(w, http.StatusNotFound, "no manifest")
		return
	}
	writeJSON(w, http.StatusOK, s.results.Manifest)
}

func (s *Server) outcomes(w http.ResponseWriter, r *http.Request) {
	label := r.URL.Query().Get("condition")
	if label == "" {
		writeJSON(w, http.StatusOK, s.results.Rows)
		return
	}
	cond, ok := model.ParseCondition(label)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown condition "+label)
		return
	}
	rows := []model.OutcomeRow{}
	for _, row := range s.results.Rows {
		if row.Condition == cond {
			rows = append(rows, row)
		}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) gameOutcomes(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "*")
	var rows []model.OutcomeRow
	for _, row := range s.results.Rows {
		if row.GameID == gameID {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// requestLogger logs each request through the global zap logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
