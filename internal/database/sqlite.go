package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"FlyerScraper/internal/models"

	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// fixed width so that started_at sorts chronologically as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DBRepository is the archive of finished scrape runs and their raw records.
type DBRepository struct {
	DB *sql.DB
}

// InitDB opens (creating if needed) the archive at filepath.
func InitDB(filepath string) (*DBRepository, error) {
	db, err := sql.Open("sqlite", filepath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// One writer at a time; sqlite serializes anyway.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	createRunsTableSQL := `
	CREATE TABLE IF NOT EXISTS runs (
		"id" TEXT NOT NULL PRIMARY KEY,
		"started_at" TEXT NOT NULL,
		"zip" TEXT,
		"items" TEXT,
		"records" INTEGER DEFAULT 0,
		"output_path" TEXT DEFAULT ''
	);`
	if _, err = db.Exec(createRunsTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating runs table: %w", err)
	}

	createRecordsTableSQL := `
	CREATE TABLE IF NOT EXISTS records (
		"id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"run_id" TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		"seq" INTEGER NOT NULL,
		"item" TEXT,
		"fields" TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_records_run ON records(run_id, seq);`
	if _, err = db.Exec(createRecordsTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating records table: %w", err)
	}

	return &DBRepository{DB: db}, nil
}

// Close closes the database connection.
func (repo *DBRepository) Close() error {
	return repo.DB.Close()
}

// SaveRun stores run and its records in one transaction, keeping record order.
func (repo *DBRepository) SaveRun(ctx context.Context, run models.Run, records []models.RawRecord) error {
	items, err := json.Marshal(run.Items)
	if err != nil {
		return err
	}

	tx, err := repo.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, zip, items, records, output_path) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC().Format(timeLayout), run.ZIP, string(items), len(records), run.Output,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records (run_id, seq, item, fields) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, run.ID, i, r.Item, r.Fields); err != nil {
			return fmt.Errorf("failed to save record %d of run %s: %w", i, run.ID, err)
		}
	}
	return tx.Commit()
}

// SetRunOutput records the spreadsheet written for a run.
func (repo *DBRepository) SetRunOutput(ctx context.Context, id, path string) error {
	res, err := repo.DB.ExecContext(ctx, `UPDATE runs SET output_path = ? WHERE id = ?`, path, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRunNotFound
	}
	return nil
}

const runColumns = `id, started_at, zip, items, records, output_path`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (models.Run, error) {
	var (
		run       models.Run
		startedAt string
		items     string
	)
	if err := s.Scan(&run.ID, &startedAt, &run.ZIP, &items, &run.Records, &run.Output); err != nil {
		return run, err
	}
	t, err := time.Parse(timeLayout, startedAt)
	if err != nil {
		return run, fmt.Errorf("bad timestamp for run %s: %w", run.ID, err)
	}
	run.StartedAt = t
	if items != "" {
		if err := json.Unmarshal([]byte(items), &run.Items); err != nil {
			return run, fmt.Errorf("bad item list for run %s: %w", run.ID, err)
		}
	}
	return run, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all of them.
func (repo *DBRepository) ListRuns(ctx context.Context, limit int) ([]models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := repo.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns one run by ID.
func (repo *DBRepository) GetRun(ctx context.Context, id string) (models.Run, error) {
	row := repo.DB.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return run, ErrRunNotFound
	}
	return run, err
}

// GetRunRecords returns the raw records of a run in scrape order.
func (repo *DBRepository) GetRunRecords(ctx context.Context, id string) ([]models.RawRecord, error) {
	if _, err := repo.GetRun(ctx, id); err != nil {
		return nil, err
	}

	rows, err := repo.DB.QueryContext(ctx, `SELECT item, fields FROM records WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load records of run %s: %w", id, err)
	}
	defer rows.Close()

	var records []models.RawRecord
	for rows.Next() {
		var r models.RawRecord
		if err := rows.Scan(&r.Item, &r.Fields); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
