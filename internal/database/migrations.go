package database

import (
	"database/sql"
	"fmt"
)

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS articles (
    url_id TEXT PRIMARY KEY,
    url TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT '',
    content_hash TEXT NOT NULL DEFAULT '',
    fetched_at TEXT DEFAULT (datetime('now')),
    error TEXT
);

CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL DEFAULT (datetime('now')),
    finished_at TEXT,
    article_count INTEGER DEFAULT 0,
    failed_count INTEGER DEFAULT 0,
    output_path TEXT
);

CREATE TABLE IF NOT EXISTS article_metrics (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    url_id TEXT NOT NULL,
    url TEXT NOT NULL DEFAULT '',
    positive_score INTEGER NOT NULL DEFAULT 0,
    negative_score INTEGER NOT NULL DEFAULT 0,
    polarity_score REAL NOT NULL DEFAULT 0,
    subjectivity_score REAL NOT NULL DEFAULT 0,
    avg_sentence_length REAL NOT NULL DEFAULT 0,
    percentage_complex_words REAL NOT NULL DEFAULT 0,
    fog_index REAL NOT NULL DEFAULT 0,
    avg_words_per_sentence REAL NOT NULL DEFAULT 0,
    complex_word_count INTEGER NOT NULL DEFAULT 0,
    word_count INTEGER NOT NULL DEFAULT 0,
    syllables_per_word REAL NOT NULL DEFAULT 0,
    personal_pronouns INTEGER NOT NULL DEFAULT 0,
    avg_word_length REAL NOT NULL DEFAULT 0,
    error TEXT,
    created_at TEXT DEFAULT (datetime('now')),
    PRIMARY KEY (run_id, url_id)
);

CREATE INDEX IF NOT EXISTS idx_article_metrics_url_id ON article_metrics(url_id);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "record input path and tokenizer per run",
		Up: func(tx *sql.Tx) error {
			if err := addColumnIfMissing(tx, "runs", "input_path", "TEXT"); err != nil {
				return err
			}
			return addColumnIfMissing(tx, "runs", "tokenizer", "TEXT")
		},
	},
}

// addColumnIfMissing keeps ALTER TABLE migrations re-runnable.
func addColumnIfMissing(tx *sql.Tx, table, column, decl string) error {
	rows, err := tx.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return err
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	_, err = tx.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl))
	return err
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
