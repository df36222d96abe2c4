package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/TobiSchelling/articlemetrics/internal/analysis"
)

const sheetName = "Output"

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// WriteCSV writes a header line and one line per row.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a workbook with a single sheet. Metrics are stored as
// numeric cells.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := r.cells()
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("writing row %s: %w", r.ID, err)
		}
	}

	return f.Write(w)
}

type jsonRow struct {
	URLID string `json:"url_id"`
	URL   string `json:"url"`
	analysis.Record
	Error string `json:"error,omitempty"`
}

// WriteJSON writes an indented array of objects.
func WriteJSON(w io.Writer, rows []Row) error {
	out := make([]jsonRow, len(rows))
	for i, r := range rows {
		out[i] = jsonRow{URLID: r.ID, URL: r.URL, Record: r.Record, Error: r.Err}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// WriteMarkdown writes a pipe table.
func WriteMarkdown(w io.Writer, rows []Row) error {
	var b strings.Builder
	writeMarkdownLine(&b, Columns)

	sep := make([]string, len(Columns))
	for i := range sep {
		if i < 2 {
			sep[i] = "---"
		} else {
			sep[i] = "---:"
		}
	}
	writeMarkdownLine(&b, sep)

	for _, r := range rows {
		writeMarkdownLine(&b, r.Values())
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeMarkdownLine(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(escapeMarkdownCell(c))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

func escapeMarkdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// WriteHTML renders the Markdown table to an HTML fragment.
func WriteHTML(w io.Writer, rows []Row) error {
	var src bytes.Buffer
	if err := WriteMarkdown(&src, rows); err != nil {
		return err
	}
	return md.Convert(src.Bytes(), w)
}
