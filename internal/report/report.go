// Package report writes analysis results as CSV, XLSX, JSON, Markdown or
// HTML tables with a fixed column order.
package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/TobiSchelling/articlemetrics/internal/analysis"
)

// Format names an output encoding.
type Format string

const (
	CSV      Format = "csv"
	XLSX     Format = "xlsx"
	JSON     Format = "json"
	Markdown Format = "markdown"
	HTML     Format = "html"
)

// Columns is the header of every tabular report.
var Columns = []string{
	"URL_ID",
	"URL",
	"POSITIVE SCORE",
	"NEGATIVE SCORE",
	"POLARITY SCORE",
	"SUBJECTIVITY SCORE",
	"AVG SENTENCE LENGTH",
	"PERCENTAGE OF COMPLEX WORDS",
	"FOG INDEX",
	"AVG NUMBER OF WORDS PER SENTENCE",
	"COMPLEX WORD COUNT",
	"WORD COUNT",
	"SYLLABLE PER WORD",
	"PERSONAL PRONOUNS",
	"AVG WORD LENGTH",
}

// Row is one article's line in a report. Err is kept for logs and JSON
// output only; a failed article carries the zero Record.
type Row struct {
	ID     string
	URL    string
	Record analysis.Record
	Err    string
}

// Failed reports whether the row stands in for an article that could not
// be analyzed.
func (r Row) Failed() bool {
	return r.Err != ""
}

// Values returns the row's cells in Columns order.
func (r Row) Values() []string {
	out := make([]string, 0, len(Columns))
	for _, v := range r.cells() {
		switch v := v.(type) {
		case string:
			out = append(out, v)
		case int:
			out = append(out, strconv.Itoa(v))
		case float64:
			out = append(out, FormatFloat(v))
		}
	}
	return out
}

// cells returns typed values in Columns order.
func (r Row) cells() []any {
	m := r.Record
	return []any{
		r.ID,
		r.URL,
		m.PositiveScore,
		m.NegativeScore,
		m.PolarityScore,
		m.SubjectivityScore,
		m.AvgSentenceLength,
		m.PercentageComplexWords,
		m.FogIndex,
		m.AvgWordsPerSentence,
		m.ComplexWordCount,
		m.WordCount,
		m.SyllablesPerWord,
		m.PersonalPronouns,
		m.AvgWordLength,
	}
}

// FormatFloat renders v as the shortest round-trip decimal, always with a
// fractional part or exponent: 2 is "2.0", 0.000001 is "1e-06". Magnitudes
// below 1e-4 or from 1e16 up use exponent form.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	if abs := math.Abs(v); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ParseFormat validates a format name. "md" is accepted for Markdown and
// "excel" for XLSX.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return CSV, nil
	case "xlsx", "excel":
		return XLSX, nil
	case "json":
		return JSON, nil
	case "markdown", "md":
		return Markdown, nil
	case "html", "htm":
		return HTML, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

// FormatFromPath infers the format from the file extension, defaulting to
// CSV.
func FormatFromPath(path string) Format {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if f, err := ParseFormat(ext); err == nil {
		return f
	}
	return CSV
}

// Write encodes rows to w.
func Write(w io.Writer, format Format, rows []Row) error {
	switch format {
	case CSV:
		return WriteCSV(w, rows)
	case XLSX:
		return WriteXLSX(w, rows)
	case JSON:
		return WriteJSON(w, rows)
	case Markdown:
		return WriteMarkdown(w, rows)
	case HTML:
		return WriteHTML(w, rows)
	}
	return fmt.Errorf("unknown report format %q", format)
}

// WriteFile writes rows to path, creating parent directories. An empty
// format is inferred from the extension.
func WriteFile(path string, format Format, rows []Row) error {
	if format == "" {
		format = FormatFromPath(path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := Write(f, format, rows); err != nil {
		f.Close()
		return fmt.Errorf("writing %s report: %w", format, err)
	}
	return f.Close()
}
