// Package lexicon loads the stopword and sentiment word lists used by the
// metric engine.
//
// Every entry is trimmed and lower-cased at load time, so membership checks
// take already lower-cased words. Files are decoded as ISO-8859-1, which maps
// every byte to a rune and therefore never fails on non-UTF-8 input.
package lexicon

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// File names expected inside the master dictionary directory.
const (
	PositiveFile = "positive-words.txt"
	NegativeFile = "negative-words.txt"
)

// ErrMissing is returned (wrapped) when a dictionary file does not exist.
// It is a warning: the accompanying set is empty but usable.
var ErrMissing = errors.New("dictionary file not found")

// Set holds the three word sets shared by all analyses of a session.
// It must not be modified after Load returns.
type Set struct {
	Stopwords map[string]struct{}
	Positive  map[string]struct{}
	Negative  map[string]struct{}
}

// NewSet builds a Set from plain word lists, normalizing each entry.
// Mostly useful for tests and for the single-text command.
func NewSet(stopwords, positive, negative []string) *Set {
	return &Set{
		Stopwords: fromWords(stopwords),
		Positive:  fromWords(positive),
		Negative:  fromWords(negative),
	}
}

// IsStopword reports whether word (lower-cased) is a stopword. A nil Set is
// treated as empty.
func (s *Set) IsStopword(word string) bool {
	if s == nil {
		return false
	}
	_, ok := s.Stopwords[word]
	return ok
}

// IsPositive reports whether word (lower-cased) is in the positive list.
func (s *Set) IsPositive(word string) bool {
	if s == nil {
		return false
	}
	_, ok := s.Positive[word]
	return ok
}

// IsNegative reports whether word (lower-cased) is in the negative list.
func (s *Set) IsNegative(word string) bool {
	if s == nil {
		return false
	}
	_, ok := s.Negative[word]
	return ok
}

// Len returns the sizes of the three word sets.
func (s *Set) Len() (stopwords, positive, negative int) {
	if s == nil {
		return 0, 0, 0
	}
	return len(s.Stopwords), len(s.Positive), len(s.Negative)
}

// Load reads the stopwords directory and the positive/negative dictionaries
// from masterDictDir. Missing dictionaries are returned as warnings and
// logged; an unreadable stopwords directory is fatal.
func Load(stopwordsDir, masterDictDir string) (*Set, []error, error) {
	stop, err := LoadStopwords(stopwordsDir)
	if err != nil {
		return nil, nil, err
	}

	var warnings []error
	pos, err := LoadWords(filepath.Join(masterDictDir, PositiveFile))
	if err != nil {
		if !errors.Is(err, ErrMissing) {
			return nil, nil, err
		}
		log.Printf("Warning: %v", err)
		warnings = append(warnings, err)
	}
	neg, err := LoadWords(filepath.Join(masterDictDir, NegativeFile))
	if err != nil {
		if !errors.Is(err, ErrMissing) {
			return nil, nil, err
		}
		log.Printf("Warning: %v", err)
		warnings = append(warnings, err)
	}

	return &Set{Stopwords: stop, Positive: pos, Negative: neg}, warnings, nil
}

// LoadStopwords reads every file in dir, following symlinks, and merges their
// non-blank lines into one set. Subdirectories are skipped.
func LoadStopwords(dir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading stopwords directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	set := make(map[string]struct{})
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("reading stopwords file %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		if err := readInto(path, set); err != nil {
			return nil, fmt.Errorf("reading stopwords file %s: %w", path, err)
		}
	}
	return set, nil
}

// LoadWords reads a single word-per-line file. If the file does not exist it
// returns an empty set and an error wrapping ErrMissing.
func LoadWords(path string) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	if err := readInto(path, set); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return set, fmt.Errorf("%w: %s", ErrMissing, path)
		}
		return nil, fmt.Errorf("reading dictionary %s: %w", path, err)
	}
	return set, nil
}

func readInto(path string, set map[string]struct{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return scanWords(f, set)
}

func scanWords(r io.Reader, set map[string]struct{}) error {
	sc := bufio.NewScanner(charmap.ISO8859_1.NewDecoder().Reader(r))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sc.Split(scanAnyLines)
	for sc.Scan() {
		if w := normalize(sc.Text()); w != "" {
			set[w] = struct{}{}
		}
	}
	return sc.Err()
}

// scanAnyLines is a bufio.SplitFunc ending lines at "\n", "\r\n" or a lone
// "\r".
func scanAnyLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		// A trailing "\r" may be the first half of "\r\n".
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func normalize(line string) string {
	return strings.ToLower(strings.TrimSpace(line))
}

func fromWords(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if n := normalize(w); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}
