package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

const runColumns = `id, started_at, finished_at, article_count, failed_count, output_path, input_path, tokenizer`

// CreateRun starts a new run and returns it.
func (db *DB) CreateRun(inputPath, tokenizer string) (*Run, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(
		"INSERT INTO runs (id, input_path, tokenizer) VALUES (?, ?, ?)",
		id, nullIfEmpty(inputPath), nullIfEmpty(tokenizer),
	)
	if err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}
	return db.GetRun(id)
}

// FinishRun stamps the run's completion time and totals.
func (db *DB) FinishRun(id string, articleCount, failedCount int, outputPath string) error {
	res, err := db.conn.Exec(
		`UPDATE runs SET finished_at = datetime('now'), article_count = ?, failed_count = ?, output_path = ?
		WHERE id = ?`,
		articleCount, failedCount, nullIfEmpty(outputPath), id,
	)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// GetRun returns a run by ID, or nil when absent.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.conn.QueryRow("SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetRuns returns the most recent runs first. limit <= 0 returns all.
func (db *DB) GetRuns(limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, rowid DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM articles", &s.TotalArticles},
		{"SELECT COUNT(*) FROM articles WHERE error IS NOT NULL", &s.FailedArticles},
		{"SELECT COUNT(*) FROM runs", &s.Runs},
		{"SELECT COUNT(*) FROM article_metrics", &s.MetricRows},
	}

	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	if err := db.conn.QueryRow("SELECT MAX(started_at) FROM runs").Scan(&s.LastRunAt); err != nil {
		return nil, err
	}

	return s, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var r Run
	if err := row.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.ArticleCount, &r.FailedCount,
		&r.OutputPath, &r.InputPath, &r.Tokenizer); err != nil {
		return nil, err
	}
	return &r, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
