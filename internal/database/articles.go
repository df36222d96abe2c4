package database

import (
	"database/sql"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// ContentHash returns the hex xxhash of an article body.
func ContentHash(content string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(content))
}

// UpsertArticle inserts or updates an article by URL_ID and clears any
// previous fetch error. It reports whether the stored content changed.
func (db *DB) UpsertArticle(urlID, url, title, content string) (bool, error) {
	hash := ContentHash(content)

	var previous string
	err := db.conn.QueryRow("SELECT content_hash FROM articles WHERE url_id = ?", urlID).Scan(&previous)
	if err != nil && err != sql.ErrNoRows {
		return false, err
	}

	_, err = db.conn.Exec(
		`INSERT INTO articles (url_id, url, title, content, content_hash, fetched_at, error)
		VALUES (?, ?, ?, ?, ?, datetime('now'), NULL)
		ON CONFLICT(url_id) DO UPDATE SET
			url = excluded.url,
			title = excluded.title,
			content = excluded.content,
			content_hash = excluded.content_hash,
			fetched_at = excluded.fetched_at,
			error = NULL`,
		urlID, url, title, content, hash,
	)
	if err != nil {
		return false, fmt.Errorf("upserting article %s: %w", urlID, err)
	}
	return previous != hash, nil
}

// MarkFetchFailed records a fetch error for an article, keeping any
// content stored by an earlier run.
func (db *DB) MarkFetchFailed(urlID, url, reason string) error {
	_, err := db.conn.Exec(
		`INSERT INTO articles (url_id, url, fetched_at, error)
		VALUES (?, ?, datetime('now'), ?)
		ON CONFLICT(url_id) DO UPDATE SET
			url = excluded.url,
			fetched_at = excluded.fetched_at,
			error = excluded.error`,
		urlID, url, reason,
	)
	return err
}

// GetArticle returns a single article by URL_ID, or nil when absent.
func (db *DB) GetArticle(urlID string) (*Article, error) {
	row := db.conn.QueryRow(
		`SELECT url_id, url, title, content, content_hash, fetched_at, error
		FROM articles WHERE url_id = ?`, urlID,
	)
	var a Article
	if err := row.Scan(&a.URLID, &a.URL, &a.Title, &a.Content, &a.ContentHash, &a.FetchedAt, &a.Error); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// ListArticles returns all articles ordered by URL_ID. Content is left
// empty to keep listings small.
func (db *DB) ListArticles() ([]Article, error) {
	rows, err := db.conn.Query(
		`SELECT url_id, url, title, content_hash, fetched_at, error
		FROM articles ORDER BY url_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		var a Article
		if err := rows.Scan(&a.URLID, &a.URL, &a.Title, &a.ContentHash, &a.FetchedAt, &a.Error); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}
