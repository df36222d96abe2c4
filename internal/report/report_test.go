package report_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TobiSchelling/articlemetrics/internal/analysis"
	"github.com/TobiSchelling/articlemetrics/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var sampleRows = []report.Row{
	{
		ID:  "blackassign0001",
		URL: "https://a.example/1",
		Record: analysis.Record{
			PositiveScore:       2,
			PolarityScore:       0.5,
			SubjectivityScore:   0.25,
			AvgSentenceLength:   1.5,
			AvgWordsPerSentence: 1.5,
			WordCount:           3,
			SyllablesPerWord:    1.25,
			AvgWordLength:       3,
		},
	},
	{ID: "blackassign0002", Err: "fetching: 404"},
}

const expectedHeader = "URL_ID,URL,POSITIVE SCORE,NEGATIVE SCORE,POLARITY SCORE,SUBJECTIVITY SCORE," +
	"AVG SENTENCE LENGTH,PERCENTAGE OF COMPLEX WORDS,FOG INDEX,AVG NUMBER OF WORDS PER SENTENCE," +
	"COMPLEX WORD COUNT,WORD COUNT,SYLLABLE PER WORD,PERSONAL PRONOUNS,AVG WORD LENGTH"

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, report.WriteCSV(&buf, sampleRows))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, expectedHeader, lines[0])
	assert.Equal(t, "blackassign0001,https://a.example/1,2,0,0.5,0.25,1.5,0.0,0.0,1.5,0,3,1.25,0,3.0", lines[1])
	assert.Equal(t, "blackassign0002,,0,0,0.0,0.0,0.0,0.0,0.0,0.0,0,0,0.0,0,0.0", lines[2])
}

func TestRowValues(t *testing.T) {
	t.Parallel()

	assert.Len(t, sampleRows[0].Values(), len(report.Columns))
	assert.False(t, sampleRows[0].Failed())
	assert.True(t, sampleRows[1].Failed())

	r := report.Row{Record: analysis.Record{PolarityScore: 1.0 / 3}}
	assert.Equal(t, "0.3333333333333333", r.Values()[4])
}

func TestFormatFloat(t *testing.T) {
	t.Parallel()

	for v, want := range map[float64]string{
		0:                  "0.0",
		2:                  "2.0",
		-3:                 "-3.0",
		0.5:                "0.5",
		12.345:             "12.345",
		0.0001:             "0.0001",
		0.000001:           "1e-06",
		0.000015:           "1.5e-05",
		-0.00002:           "-2e-05",
		999999999999999.0:  "999999999999999.0",
		1e16:               "1e+16",
		1.0 / 3:            "0.3333333333333333",
		0.999999000001:     "0.999999000001",
	} {
		assert.Equal(t, want, report.FormatFloat(v), "%v", v)
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, report.WriteJSON(&buf, sampleRows))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "blackassign0001", decoded[0]["url_id"])
	assert.Equal(t, 0.5, decoded[0]["polarity_score"])
	assert.NotContains(t, decoded[0], "error")
	assert.Equal(t, "fetching: 404", decoded[1]["error"])
}

func TestWriteMarkdown(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rows := []report.Row{{ID: "x", URL: "https://a.example/?q=a|b"}}
	require.NoError(t, report.WriteMarkdown(&buf, rows))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "| URL_ID | URL | POSITIVE SCORE |"))
	assert.True(t, strings.HasPrefix(lines[1], "| --- | --- | ---: |"))
	assert.Contains(t, lines[2], `a\|b`)
}

func TestWriteHTML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, report.WriteHTML(&buf, sampleRows))

	out := buf.String()
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<th>URL_ID</th>")
	assert.Contains(t, out, "<td>blackassign0001</td>")
}

func TestWriteXLSX(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, report.WriteXLSX(&buf, sampleRows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Output")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, report.Columns, rows[0])
	assert.Equal(t, "blackassign0001", rows[1][0])
	assert.Equal(t, "0.5", rows[1][4])
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	tests := map[string]report.Format{
		"output.csv":    report.CSV,
		"Output.XLSX":   report.XLSX,
		"out/report.md": report.Markdown,
		"r.json":        report.JSON,
		"index.html":    report.HTML,
		"noextension":   report.CSV,
		"weird.unknown": report.CSV,
	}
	for path, want := range tests {
		assert.Equal(t, want, report.FormatFromPath(path), path)
	}

	_, err := report.ParseFormat("pdf")
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "output.csv")
	require.NoError(t, report.WriteFile(path, "", sampleRows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), expectedHeader+"\n"))

	err = report.WriteFile(filepath.Join(t.TempDir(), "x.out"), report.Format("bogus"), nil)
	assert.Error(t, err)
}
