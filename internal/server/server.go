package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"FlyerScraper/internal/database"
	"FlyerScraper/internal/models"
	"FlyerScraper/internal/processor"
	"FlyerScraper/pkg/config"
	"FlyerScraper/utils"
)

// RunStore is the part of the application the results endpoint serves from.
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]models.Run, error)
	Export(ctx context.Context, runID, blacklist, dir string) (string, *processor.Table, error)
}

// RunView is one archived run in the JSON listing.
type RunView struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	ZIP       string    `json:"zip"`
	Items     []string  `json:"items"`
	Records   int       `json:"records"`
	Output    string    `json:"output_path,omitempty"`
}

// RunsResponse is the body of GET /runs.
type RunsResponse struct {
	Data  []RunView `json:"data"`
	Limit int       `json:"limit"`
}

// Server exposes archived runs over HTTP.
type Server struct {
	store         RunStore
	addr          string
	blacklistPath string
	logger        *slog.Logger
}

// New creates a Server listening on cfg.Server.Addr.
func New(store RunStore, cfg *config.Config, logger *slog.Logger) *Server {
	return &Server{
		store:         store,
		addr:          cfg.Server.Addr,
		blacklistPath: cfg.Output.Blacklist,
		logger:        logger.With("component", "server"),
	}
}

// Handler returns the routes of the results endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /runs", s.runsHandler)
	mux.HandleFunc("GET /runs/{id}/spreadsheet", s.spreadsheetHandler)
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting results server", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("shutting down results server")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) runsHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 20 // Default limit
	}

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list runs", "error", err)
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}

	resp := RunsResponse{Data: make([]RunView, 0, len(runs)), Limit: limit}
	for _, run := range runs {
		resp.Data = append(resp.Data, RunView{
			ID:        run.ID,
			StartedAt: run.StartedAt,
			ZIP:       run.ZIP,
			Items:     run.Items,
			Records:   run.Records,
			Output:    run.Output,
		})
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("failed to encode response", "error", err)
	}
}

func (s *Server) spreadsheetHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	blacklist := ""
	if s.blacklistPath != "" {
		text, err := utils.LoadListFile(s.blacklistPath)
		if err != nil {
			s.logger.Warn("failed to read blacklist, exporting without it", "error", err)
		}
		blacklist = text
	}

	dir, err := os.MkdirTemp("", "flyerscraper-export-*")
	if err != nil {
		http.Error(w, "Failed to prepare export", http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(dir)

	path, _, err := s.store.Export(r.Context(), id, blacklist, dir)
	if err != nil {
		var ce *models.ConfigError
		switch {
		case errors.Is(err, database.ErrRunNotFound):
			http.Error(w, "Run not found", http.StatusNotFound)
		case errors.As(err, &ce), errors.Is(err, processor.ErrNoRows):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			s.logger.Error("failed to export run", "run_id", id, "error", err)
			http.Error(w, "Failed to export run", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filepath.Base(path)))
	http.ServeFile(w, r, path)
}
