package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"FlyerScraper/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DBRepository {
	t.Helper()
	repo, err := InitDB(filepath.Join(t.TempDir(), "flyers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSaveAndLoadRun(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	run := models.Run{ID: "run-1", StartedAt: started, ZIP: "10115", Items: []string{"milch", "butter"}}
	records := []models.RawRecord{
		{Item: "milch", Fields: models.Fields{models.ColName: "vollmilch", models.ColPrice: "je 1,19/1 l"}},
		{Item: "butter", Fields: models.Fields{models.ColName: "butter", models.ColNote: ""}},
	}
	require.NoError(t, repo.SaveRun(ctx, run, records))
	require.NoError(t, repo.SetRunOutput(ctx, "run-1", "out.xlsx"))

	got, err := repo.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "10115", got.ZIP)
	assert.Equal(t, []string{"milch", "butter"}, got.Items)
	assert.Equal(t, 2, got.Records)
	assert.Equal(t, "out.xlsx", got.Output)
	assert.True(t, started.Equal(got.StartedAt))

	loaded, err := repo.GetRunRecords(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, records, loaded)
}

func TestListRunsNewestFirst(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		run := models.Run{ID: id, StartedAt: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, repo.SaveRun(ctx, run, nil))
	}

	runs, err := repo.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "a", runs[2].ID)

	runs, err = repo.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestUnknownRun(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	_, err := repo.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, err = repo.GetRunRecords(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.ErrorIs(t, repo.SetRunOutput(ctx, "missing", "x"), ErrRunNotFound)
}
