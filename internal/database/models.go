package database

import "github.com/TobiSchelling/articlemetrics/internal/analysis"

// Article is an extracted page keyed by its URL_ID.
type Article struct {
	URLID       string
	URL         string
	Title       string
	Content     string
	ContentHash string
	FetchedAt   *string
	Error       *string
}

// Run is one analysis pass over the article files.
type Run struct {
	ID           string
	StartedAt    string
	FinishedAt   *string
	ArticleCount int
	FailedCount  int
	OutputPath   *string
	InputPath    *string
	Tokenizer    *string
}

// Finished reports whether FinishRun has been called for the run.
func (r *Run) Finished() bool {
	return r.FinishedAt != nil
}

// Metrics is one article's record within a run. Position preserves the
// order in which the run reported articles.
type Metrics struct {
	RunID    string
	Position int
	URLID    string
	URL      string
	Record   analysis.Record
	Error    *string
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalArticles  int
	FailedArticles int
	Runs           int
	MetricRows     int
	LastRunAt      *string
}
