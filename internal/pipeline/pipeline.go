// Package pipeline drives a batch: fetch and extract every input row into
// article files, analyze each file, then write the report.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/TobiSchelling/articlemetrics/internal/analysis"
	"github.com/TobiSchelling/articlemetrics/internal/articles"
	"github.com/TobiSchelling/articlemetrics/internal/config"
	"github.com/TobiSchelling/articlemetrics/internal/database"
	"github.com/TobiSchelling/articlemetrics/internal/extract"
	"github.com/TobiSchelling/articlemetrics/internal/fetch"
	"github.com/TobiSchelling/articlemetrics/internal/input"
	"github.com/TobiSchelling/articlemetrics/internal/lexicon"
	"github.com/TobiSchelling/articlemetrics/internal/report"
	"github.com/TobiSchelling/articlemetrics/internal/telemetry"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	RunID string
	Steps []StepResult
}

// Err returns the first step error, if any.
func (r *Result) Err() error {
	for _, s := range r.Steps {
		if s.Err != nil {
			return fmt.Errorf("%s: %w", s.Name, s.Err)
		}
	}
	return nil
}

// Batch is the outcome of the analyze step, in article file order.
type Batch struct {
	RunID  string
	Rows   []report.Row
	Failed int
}

// ProgressFunc is called after each article of a step completes.
type ProgressFunc func(step string, done, total int)

// Pipeline orchestrates the extract, analyze and report steps.
type Pipeline struct {
	cfg      *config.Config
	db       *database.DB
	lex      *lexicon.Set
	metrics  *telemetry.Metrics
	engine   *analysis.Engine
	store    *articles.Store
	fetcher  *fetch.Fetcher
	progress ProgressFunc
}

// New creates a pipeline. db and metrics may be nil.
func New(cfg *config.Config, db *database.DB, lex *lexicon.Set, metrics *telemetry.Metrics) (*Pipeline, error) {
	mode, err := analysis.ParseMode(cfg.Analysis.Tokenizer)
	if err != nil {
		return nil, err
	}

	ex, err := extract.NewChain(cfg.Fetch.Extractor, cfg.Fetch.FallbackExtractor, extract.Options{
		TitleSelector:   cfg.Fetch.TitleSelector,
		ContentSelector: cfg.Fetch.ContentSelector,
	})
	if err != nil {
		return nil, err
	}

	timeout, err := cfg.FetchTimeout()
	if err != nil {
		return nil, err
	}

	if metrics != nil {
		metrics.SetLexicon(lex.Len())
	}

	return &Pipeline{
		cfg:     cfg,
		db:      db,
		lex:     lex,
		metrics: metrics,
		engine:  analysis.NewEngine(analysis.Init(mode)),
		store:   articles.NewStore(cfg.GetArticlesDir()),
		fetcher: fetch.New(fetch.Options{
			Timeout:           timeout,
			UserAgent:         cfg.Fetch.UserAgent,
			Concurrency:       cfg.Fetch.Concurrency,
			RequestsPerSecond: cfg.Fetch.RequestsPerSecond,
		}, ex),
	}, nil
}

// SetProgress installs a progress callback. It may be called from several
// goroutines.
func (p *Pipeline) SetProgress(fn ProgressFunc) {
	p.progress = fn
}

// Store returns the article file store.
func (p *Pipeline) Store() *articles.Store {
	return p.store
}

// LoadRows reads the configured input table.
func (p *Pipeline) LoadRows() ([]input.Row, error) {
	rows, err := input.Read(p.cfg.Input.Path, input.Options{
		IDColumn:  p.cfg.Input.IDColumn,
		URLColumn: p.cfg.Input.URLColumn,
		Sheet:     p.cfg.Input.Sheet,
	})
	if err != nil {
		return nil, fmt.Errorf("reading input %s: %w", p.cfg.Input.Path, err)
	}
	return rows, nil
}

// Run executes load, extract, analyze and report.
func (p *Pipeline) Run(ctx context.Context) *Result {
	r := &Result{}

	rows, err := p.LoadRows()
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Input", Err: err})
		return r
	}
	r.Steps = append(r.Steps, StepResult{Name: "Input", Summary: fmt.Sprintf("Loaded %d rows from %s", len(rows), p.cfg.Input.Path)})

	step := p.Extract(ctx, rows)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	return p.analyzeAndReport(ctx, r, rows)
}

// RunAnalyze runs analyze and report over the article files already on
// disk.
func (p *Pipeline) RunAnalyze(ctx context.Context) *Result {
	r := &Result{}

	rows, err := p.LoadRows()
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Input", Err: err})
		return r
	}
	return p.analyzeAndReport(ctx, r, rows)
}

func (p *Pipeline) analyzeAndReport(ctx context.Context, r *Result, rows []input.Row) *Result {
	step, batch := p.Analyze(ctx, rows)
	r.Steps = append(r.Steps, step)
	if batch == nil {
		return r
	}
	r.RunID = batch.RunID

	r.Steps = append(r.Steps, p.Report(batch))
	return r
}

// Extract fetches every row and writes an article file for each page that
// yields text. Per-row failures are counted, not fatal.
func (p *Pipeline) Extract(ctx context.Context, rows []input.Row) StepResult {
	log.Printf("Extracting %d articles into %s", len(rows), p.store.Dir())

	var (
		mu            sync.Mutex
		saved, failed int
		done          int
	)
	err := p.fetcher.FetchAll(ctx, rows, func(row input.Row, res *extract.Result, err error) {
		if err == nil && (res == nil || res.Text == "") {
			err = extract.ErrNoContent
		}
		if err == nil {
			err = p.saveArticle(row, res)
		}
		p.metrics.ObserveFetch(err)

		mu.Lock()
		if err != nil {
			failed++
		} else {
			saved++
		}
		done++
		n := done
		mu.Unlock()

		if err != nil {
			log.Printf("Failed to extract article for URL_ID: %s: %v", row.ID, err)
			if p.db != nil {
				if dbErr := p.db.MarkFetchFailed(row.ID, row.URL, err.Error()); dbErr != nil {
					log.Printf("Warning: recording fetch failure for %s: %v", row.ID, dbErr)
				}
			}
		} else {
			log.Printf("Saved article for URL_ID: %s", row.ID)
		}
		p.report("Extract", n, len(rows))
	})

	return StepResult{
		Name:    "Extract",
		Summary: fmt.Sprintf("Saved %d articles, %d failed", saved, failed),
		Err:     err,
	}
}

func (p *Pipeline) saveArticle(row input.Row, res *extract.Result) error {
	if _, err := p.store.Write(articles.Article{ID: row.ID, URL: row.URL, Title: res.Title, Text: res.Text}); err != nil {
		return err
	}
	if p.db != nil {
		if _, err := p.db.UpsertArticle(row.ID, row.URL, res.Title, res.Text); err != nil {
			log.Printf("Warning: storing article %s: %v", row.ID, err)
		}
	}
	return nil
}

// Analyze computes a record for every article file, in file order. An
// article whose input row is missing, or whose file cannot be read, gets
// the zero record with an empty URL. Batch is nil when there are no
// article files or the directory cannot be listed.
func (p *Pipeline) Analyze(ctx context.Context, rows []input.Row) (StepResult, *Batch) {
	ids, err := p.store.List()
	if err != nil {
		return StepResult{Name: "Analyze", Err: err}, nil
	}
	if len(ids) == 0 {
		log.Println("No article files found in the directory.")
		return StepResult{Name: "Analyze", Summary: "No article files found"}, nil
	}

	index := input.Index(rows)
	out := make([]report.Row, len(ids))

	workers := p.cfg.Analysis.Workers
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var (
		mu   sync.Mutex
		done int
	)
	for i, id := range ids {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			out[i] = p.analyzeOne(id, index)

			mu.Lock()
			done++
			n := done
			mu.Unlock()
			p.report("Analyze", n, len(ids))
			return nil
		})
	}
	g.Wait()
	if err := ctx.Err(); err != nil {
		return StepResult{Name: "Analyze", Err: err}, nil
	}

	batch := &Batch{Rows: out}
	for _, r := range out {
		if r.Failed() {
			batch.Failed++
		}
	}
	batch.RunID = p.persist(out)

	return StepResult{
		Name:    "Analyze",
		Summary: fmt.Sprintf("Analyzed %d articles, %d failed", len(out)-batch.Failed, batch.Failed),
	}, batch
}

func (p *Pipeline) analyzeOne(id string, index map[string]input.Row) report.Row {
	start := time.Now()
	rec, url, err := p.analyzeArticle(id, index)
	p.metrics.ObserveAnalysis(time.Since(start), err)

	if err != nil {
		log.Printf("Error processing article %s: %v", id, err)
		return report.Row{ID: id, Err: err.Error()}
	}
	log.Printf("Processed article (URL_ID: %s)", id)
	return report.Row{ID: id, URL: url, Record: rec}
}

func (p *Pipeline) analyzeArticle(id string, index map[string]input.Row) (analysis.Record, string, error) {
	row, ok := index[id]
	if !ok {
		return analysis.Record{}, "", fmt.Errorf("no input row for URL_ID %s", id)
	}
	a, err := p.store.Read(id)
	if err != nil {
		return analysis.Record{}, "", err
	}
	return p.engine.Analyze(a.Text, p.lex), row.URL, nil
}

// persist stores the batch as a new run and returns its ID, or "" when
// there is no database or the write fails.
func (p *Pipeline) persist(rows []report.Row) string {
	if p.db == nil {
		return ""
	}
	run, err := p.db.CreateRun(p.cfg.Input.Path, p.engine.Strategy().Name)
	if err != nil {
		log.Printf("Warning: %v", err)
		return ""
	}

	metrics := make([]database.Metrics, len(rows))
	for i, r := range rows {
		metrics[i] = database.Metrics{Position: i, URLID: r.ID, URL: r.URL, Record: r.Record}
		if r.Err != "" {
			errMsg := r.Err
			metrics[i].Error = &errMsg
		}
	}
	if err := p.db.InsertMetrics(run.ID, metrics); err != nil {
		log.Printf("Warning: storing metrics for run %s: %v", run.ID, err)
	}
	return run.ID
}

// Report writes the batch to the configured report path and closes the
// run.
func (p *Pipeline) Report(batch *Batch) StepResult {
	path := p.cfg.Output.ReportPath
	var format report.Format
	if p.cfg.Output.Format != "" {
		f, err := report.ParseFormat(p.cfg.Output.Format)
		if err != nil {
			return StepResult{Name: "Report", Err: err}
		}
		format = f
	}

	if err := report.WriteFile(path, format, batch.Rows); err != nil {
		return StepResult{Name: "Report", Err: err}
	}
	log.Printf("Processed %d articles. Results saved to %s", len(batch.Rows), path)

	if p.db != nil && batch.RunID != "" {
		if err := p.db.FinishRun(batch.RunID, len(batch.Rows), batch.Failed, path); err != nil {
			log.Printf("Warning: %v", err)
		}
	}

	return StepResult{
		Name:    "Report",
		Summary: fmt.Sprintf("Wrote %d rows to %s", len(batch.Rows), path),
	}
}

// DryRun shows what would be done without fetching or writing anything.
func (p *Pipeline) DryRun() *Result {
	r := &Result{}

	rows, err := p.LoadRows()
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Input", Err: err})
		return r
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Input",
		Summary: fmt.Sprintf("[dry-run] %d rows in %s", len(rows), p.cfg.Input.Path),
	})

	ids, err := p.store.List()
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Extract", Err: err})
		return r
	}
	existing := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		existing[id] = struct{}{}
	}
	missing := 0
	for _, row := range rows {
		if _, ok := existing[row.ID]; !ok {
			missing++
		}
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Extract",
		Summary: fmt.Sprintf("[dry-run] Would fetch %d URLs (%d without an article file yet)", len(rows), missing),
	})

	stop, pos, neg := p.lex.Len()
	r.Steps = append(r.Steps, StepResult{
		Name: "Analyze",
		Summary: fmt.Sprintf("[dry-run] %d article files, %s tokenizer, lexicon %d/%d/%d (stop/pos/neg)",
			len(ids), p.engine.Strategy().Name, stop, pos, neg),
	})

	r.Steps = append(r.Steps, StepResult{
		Name:    "Report",
		Summary: fmt.Sprintf("[dry-run] Would write %s", p.cfg.Output.ReportPath),
	})

	return r
}

func (p *Pipeline) report(step string, done, total int) {
	if p.progress != nil {
		p.progress(step, done, total)
	}
}
