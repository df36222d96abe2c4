package database

import (
	"database/sql"
	"fmt"
)

const metricColumns = `run_id, position, url_id, url,
	positive_score, negative_score, polarity_score, subjectivity_score,
	avg_sentence_length, percentage_complex_words, fog_index, avg_words_per_sentence,
	complex_word_count, word_count, syllables_per_word, personal_pronouns, avg_word_length,
	error`

// InsertMetrics stores a run's records in one transaction. Each element's
// RunID is ignored in favour of runID.
func (db *DB) InsertMetrics(runID string, metrics []Metrics) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO article_metrics (` + metricColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range metrics {
		r := m.Record
		if _, err := stmt.Exec(runID, m.Position, m.URLID, m.URL,
			r.PositiveScore, r.NegativeScore, r.PolarityScore, r.SubjectivityScore,
			r.AvgSentenceLength, r.PercentageComplexWords, r.FogIndex, r.AvgWordsPerSentence,
			r.ComplexWordCount, r.WordCount, r.SyllablesPerWord, r.PersonalPronouns, r.AvgWordLength,
			m.Error); err != nil {
			return fmt.Errorf("inserting metrics for %s: %w", m.URLID, err)
		}
	}

	return tx.Commit()
}

// GetMetricsForRun returns a run's records in reporting order.
func (db *DB) GetMetricsForRun(runID string) ([]Metrics, error) {
	rows, err := db.conn.Query(
		"SELECT "+metricColumns+" FROM article_metrics WHERE run_id = ? ORDER BY position", runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Metrics
	for rows.Next() {
		m, err := scanMetrics(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// GetLatestMetrics returns the most recent record for an article, or nil
// when it has never been analyzed.
func (db *DB) GetLatestMetrics(urlID string) (*Metrics, error) {
	row := db.conn.QueryRow(
		`SELECT `+metricColumns+` FROM article_metrics
		WHERE url_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, urlID,
	)
	m, err := scanMetrics(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func scanMetrics(row scanner) (*Metrics, error) {
	var m Metrics
	r := &m.Record
	if err := row.Scan(&m.RunID, &m.Position, &m.URLID, &m.URL,
		&r.PositiveScore, &r.NegativeScore, &r.PolarityScore, &r.SubjectivityScore,
		&r.AvgSentenceLength, &r.PercentageComplexWords, &r.FogIndex, &r.AvgWordsPerSentence,
		&r.ComplexWordCount, &r.WordCount, &r.SyllablesPerWord, &r.PersonalPronouns, &r.AvgWordLength,
		&m.Error); err != nil {
		return nil, err
	}
	return &m, nil
}
