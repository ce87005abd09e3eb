// Package httpapi exposes the battery over HTTP for serve mode.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sozialwelten/Mastodon-Instance-Health-Checker/internal/domain"
)

// Runner runs one battery. Satisfied by *probe.Battery; tests use fakes.
type Runner interface {
	Run(ctx context.Context, instance string) domain.InstanceReport
}

// Comparer produces a ranked table. Satisfied by *compare.Comparator.
type Comparer interface {
	Compare(ctx context.Context, instances []string) domain.ComparisonTable
}

type Server struct {
	Logger   *zap.Logger
	Runner   Runner
	Comparer Comparer
}

func NewServer(logger *zap.Logger, runner Runner, comparer Comparer) *Server {
	return &Server{Logger: logger, Runner: runner, Comparer: comparer}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/api/check", s.handleCheck)
	r.Get("/api/compare", s.handleCompare)

	return r
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	instance := strings.TrimSpace(r.URL.Query().Get("instance"))
	if instance == "" {
		http.Error(w, "missing instance parameter", http.StatusBadRequest)
		return
	}

	report := s.Runner.Run(r.Context(), instance)

	s.Logger.Info("api_check",
		zap.String("instance", report.Instance),
		zap.Int("score", report.Score),
	)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(report)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("instances"))
	var instances []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			instances = append(instances, p)
		}
	}
	if len(instances) == 0 {
		http.Error(w, "missing instances parameter", http.StatusBadRequest)
		return
	}

	table := s.Comparer.Compare(r.Context(), instances)

	s.Logger.Info("api_compare", zap.Int("instances", len(instances)))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(table)
}
