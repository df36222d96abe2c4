// Package articles stores extracted article text as one file per URL_ID.
//
// A file starts with a "Title: ..." line and a blank line, followed by the
// body text.
package articles

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	ext         = ".txt"
	titlePrefix = "Title: "
)

// Article is the stored form of an extracted page.
type Article struct {
	ID    string
	URL   string
	Title string
	Text  string
}

// Store reads and writes article files in a directory.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir. The directory is created on the
// first Write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the directory the store writes to.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file path for an article ID.
func (s *Store) Path(id string) string {
	return filepath.Join(s.dir, id+ext)
}

// Write saves a as <dir>/<ID>.txt and returns the path.
func (s *Store) Write(a Article) (string, error) {
	if a.ID == "" || strings.ContainsAny(a.ID, `/\`) {
		return "", fmt.Errorf("invalid article id %q", a.ID)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating articles dir: %w", err)
	}
	path := s.Path(a.ID)
	content := titlePrefix + a.Title + "\n\n" + a.Text
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing article %s: %w", a.ID, err)
	}
	return path, nil
}

// List returns the IDs of all stored articles, sorted. A missing directory
// yields no IDs.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing articles: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ext))
	}
	sort.Strings(ids)
	return ids, nil
}

// Read loads an article. The first line is taken as the title line and
// the remainder, trimmed, as the body.
func (s *Store) Read(id string) (Article, error) {
	data, err := os.ReadFile(s.Path(id))
	if err != nil {
		return Article{}, fmt.Errorf("reading article %s: %w", id, err)
	}
	first, rest, _ := strings.Cut(string(data), "\n")
	return Article{
		ID:    id,
		Title: strings.TrimPrefix(strings.TrimRight(first, "\r"), titlePrefix),
		Text:  strings.TrimSpace(rest),
	}, nil
}
