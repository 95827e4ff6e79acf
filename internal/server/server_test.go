package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"FlyerScraper/internal/database"
	"FlyerScraper/internal/models"
	"FlyerScraper/internal/observability"
	"FlyerScraper/internal/processor"
	"FlyerScraper/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	runs          []models.Run
	exportErr     error
	lastLimit     int
	lastBlacklist string
}

func (f *fakeStore) ListRuns(ctx context.Context, limit int) ([]models.Run, error) {
	f.lastLimit = limit
	return f.runs, nil
}

func (f *fakeStore) Export(ctx context.Context, runID, blacklist, dir string) (string, *processor.Table, error) {
	f.lastBlacklist = blacklist
	if f.exportErr != nil {
		return "", nil, f.exportErr
	}
	path := filepath.Join(dir, "2024-01-02_abcde.xlsx")
	if err := os.WriteFile(path, []byte("xlsx:"+runID), 0o644); err != nil {
		return "", nil, err
	}
	return path, &processor.Table{}, nil
}

func newTestServer(t *testing.T, store RunStore) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Output.Blacklist = filepath.Join(t.TempDir(), "item_blacklist.txt")
	require.NoError(t, os.WriteFile(cfg.Output.Blacklist, []byte("butter\n"), 0o644))
	return New(store, cfg, observability.Discard())
}

func TestRunsHandler(t *testing.T) {
	store := &fakeStore{runs: []models.Run{
		{ID: "r1", StartedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), ZIP: "10115", Items: []string{"milch"}, Records: 4},
	}}
	h := newTestServer(t, store).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, store.lastLimit)

	var resp RunsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "r1", resp.Data[0].ID)
	assert.Equal(t, []string{"milch"}, resp.Data[0].Items)
}

func TestSpreadsheetHandler(t *testing.T) {
	store := &fakeStore{}
	h := newTestServer(t, store).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/r1/spreadsheet", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "xlsx:r1", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "2024-01-02_abcde.xlsx")
	assert.Equal(t, "butter\n", store.lastBlacklist)
}

func TestSpreadsheetHandlerErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("failed to load run: %w", database.ErrRunNotFound), http.StatusNotFound},
		{&models.ConfigError{Subjects: []string{"Brand"}, Reason: "column(s) empty"}, http.StatusUnprocessableEntity},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		h := newTestServer(t, &fakeStore{exportErr: tc.err}).Handler()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/x/spreadsheet", nil))
		assert.Equal(t, tc.code, rec.Code, tc.err.Error())
	}
}
