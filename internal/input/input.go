// Package input reads the table of articles to process. Each row carries an
// external identifier (URL_ID) and the article URL.
package input

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrColumnMissing is returned when the header lacks a required column.
var ErrColumnMissing = errors.New("column not found")

// Row is one article in the input table.
type Row struct {
	ID  string
	URL string
}

// Options names the columns to read. Empty names default to URL_ID and URL.
type Options struct {
	IDColumn  string
	URLColumn string
	// Sheet selects the XLSX sheet; empty means the first sheet.
	Sheet string
}

func (o Options) withDefaults() Options {
	if o.IDColumn == "" {
		o.IDColumn = "URL_ID"
	}
	if o.URLColumn == "" {
		o.URLColumn = "URL"
	}
	return o
}

// Read loads rows from a .csv or .xlsx file.
func Read(path string, opts Options) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readXLSX(path, opts)
	case ".csv", ".txt":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		return ReadCSV(f, opts)
	}
	return nil, fmt.Errorf("unsupported input format: %s", path)
}

// ReadCSV parses CSV rows with a header line.
func ReadCSV(r io.Reader, opts Options) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	return fromRecords(records, opts)
}

func readXLSX(path string, opts Options) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
	}
	return fromRecords(records, opts)
}

func fromRecords(records [][]string, opts Options) ([]Row, error) {
	opts = opts.withDefaults()
	if len(records) == 0 {
		return nil, nil
	}

	idCol, urlCol := -1, -1
	for i, h := range records[0] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		switch {
		case strings.EqualFold(h, opts.IDColumn):
			idCol = i
		case strings.EqualFold(h, opts.URLColumn):
			urlCol = i
		}
	}
	if idCol < 0 {
		return nil, fmt.Errorf("%w: %s", ErrColumnMissing, opts.IDColumn)
	}
	if urlCol < 0 {
		return nil, fmt.Errorf("%w: %s", ErrColumnMissing, opts.URLColumn)
	}

	var rows []Row
	for _, rec := range records[1:] {
		id := NormalizeID(cell(rec, idCol))
		if id == "" {
			continue
		}
		rows = append(rows, Row{ID: id, URL: strings.TrimSpace(cell(rec, urlCol))})
	}
	return rows, nil
}

func cell(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

// NormalizeID trims an identifier and drops the ".0" spreadsheets add to
// integral numbers, so "123.0" and "123" refer to the same article.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if before, ok := strings.CutSuffix(id, ".0"); ok && before != "" && isDigits(before) {
		return before
	}
	return id
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Index maps identifiers to rows. Later duplicates are ignored.
func Index(rows []Row) map[string]Row {
	idx := make(map[string]Row, len(rows))
	for _, r := range rows {
		if _, ok := idx[r.ID]; !ok {
			idx[r.ID] = r
		}
	}
	return idx
}

// AppendCSV adds rows to a CSV input file, creating it with a header when
// it does not exist. Rows whose URL is already present are skipped. It
// returns the number of rows written.
func AppendCSV(path string, rows []Row, opts Options) (int, error) {
	opts = opts.withDefaults()

	var existing []Row
	if f, err := os.Open(path); err == nil {
		existing, err = ReadCSV(f, opts)
		f.Close()
		if err != nil {
			return 0, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("opening input: %w", err)
	}

	seen := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		seen[r.URL] = struct{}{}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("opening input for append: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if info, err := f.Stat(); err == nil && info.Size() == 0 {
		if err := w.Write([]string{opts.IDColumn, opts.URLColumn}); err != nil {
			return 0, err
		}
	}

	written := 0
	for _, r := range rows {
		if _, ok := seen[r.URL]; ok {
			continue
		}
		seen[r.URL] = struct{}{}
		if err := w.Write([]string{r.ID, r.URL}); err != nil {
			return written, err
		}
		written++
	}
	w.Flush()
	return written, w.Error()
}
