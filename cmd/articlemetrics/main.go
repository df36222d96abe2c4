package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/articlemetrics/internal/analysis"
	"github.com/TobiSchelling/articlemetrics/internal/collect"
	"github.com/TobiSchelling/articlemetrics/internal/config"
	"github.com/TobiSchelling/articlemetrics/internal/database"
	"github.com/TobiSchelling/articlemetrics/internal/input"
	"github.com/TobiSchelling/articlemetrics/internal/lexicon"
	"github.com/TobiSchelling/articlemetrics/internal/pipeline"
	"github.com/TobiSchelling/articlemetrics/internal/server"
	"github.com/TobiSchelling/articlemetrics/internal/telemetry"
)

var version = "dev"

var (
	verbose      bool
	configPath   string
	showProgress bool
	cfg          *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "articlemetrics",
	Short:   "Readability and sentiment metrics for web articles",
	Long:    "articlemetrics fetches articles listed in a CSV/XLSX table, extracts their text and reports sentiment and readability metrics per URL_ID.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			// The single-text command works without a config file.
			if cmd.Name() == "text" && configPath == "" {
				cfg, err = config.Default()
				return err
			}
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if strings.EqualFold(cfg.Logging.Level, "DEBUG") {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&showProgress, "progress", false, "Show progress bars instead of per-article log lines")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(textCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("articlemetrics", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/articlemetrics/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to point at your input table, stopwords and master dictionary.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database, lexicon and input status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Articles:")
		fmt.Printf("  Stored: %d\n", stats.TotalArticles)
		fmt.Printf("  Last fetch failed: %d\n", stats.FailedArticles)
		fmt.Println("\nRuns:")
		fmt.Printf("  Total: %d\n", stats.Runs)
		fmt.Printf("  Metric records: %d\n", stats.MetricRows)
		if stats.LastRunAt != nil {
			fmt.Printf("  Last run: %s\n", *stats.LastRunAt)
		}

		fmt.Println("\nInput:")
		rows, err := input.Read(cfg.Input.Path, inputOptions())
		if err != nil {
			fmt.Printf("  %s: %v\n", cfg.Input.Path, err)
		} else {
			fmt.Printf("  %s: %d rows\n", cfg.Input.Path, len(rows))
		}

		fmt.Println("\nLexicon:")
		lex, _, err := lexicon.Load(cfg.Lexicon.StopwordsDir, cfg.Lexicon.MasterDictionaryDir)
		if err != nil {
			fmt.Printf("  %v\n", err)
		} else {
			stop, pos, neg := lex.Len()
			fmt.Printf("  Stopwords: %d\n", stop)
			fmt.Printf("  Positive: %d\n", pos)
			fmt.Printf("  Negative: %d\n", neg)
		}

		mode, err := analysis.ParseMode(cfg.Analysis.Tokenizer)
		if err != nil {
			return err
		}
		fmt.Printf("\nTokenizer: %s\n", analysis.Init(mode).Name)
		return nil
	},
}

// --- collect command ---

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Append entries from configured feeds to the input table",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(cfg.Feeds) == 0 {
			fmt.Println("No feeds configured.")
			return nil
		}
		if !strings.EqualFold(filepath.Ext(cfg.Input.Path), ".csv") {
			return fmt.Errorf("collect appends to a CSV input table; %s is not a .csv file", cfg.Input.Path)
		}

		timeout, err := cfg.FetchTimeout()
		if err != nil {
			return err
		}

		feeds := make([]collect.FeedConfig, len(cfg.Feeds))
		for i, f := range cfg.Feeds {
			feeds[i] = collect.FeedConfig{URL: f.URL, Name: f.Name}
		}

		fmt.Println("Collecting articles from feeds...")
		result := collect.NewFeedParser(feeds, timeout).ParseAll(cmd.Context())

		added, err := input.AppendCSV(cfg.Input.Path, result.Rows, inputOptions())
		if err != nil {
			return fmt.Errorf("updating input table: %w", err)
		}

		fmt.Println("\nCollection complete:")
		fmt.Printf("  Entries found: %d\n", len(result.Rows))
		fmt.Printf("  New rows: %d\n", added)
		fmt.Printf("  Already present: %d\n", len(result.Rows)-added)
		if result.Failed > 0 {
			fmt.Printf("  Failed feeds: %d\n", result.Failed)
		}

		if len(result.Sources) > 0 {
			fmt.Println("\nEntries by source:")
			type kv struct {
				key string
				val int
			}
			var sorted []kv
			for k, v := range result.Sources {
				sorted = append(sorted, kv{k, v})
			}
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].val > sorted[j].val })
			for _, s := range sorted {
				fmt.Printf("  %s: %d\n", s.key, s.val)
			}
		}
		return nil
	},
}

// --- pipeline commands ---

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Fetch every input URL and save the article text",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPipeline(cmd, false, func(ctx context.Context, pipe *pipeline.Pipeline) *pipeline.Result {
			r := &pipeline.Result{}
			rows, err := pipe.LoadRows()
			if err != nil {
				r.Steps = append(r.Steps, pipeline.StepResult{Name: "Input", Err: err})
				return r
			}
			r.Steps = append(r.Steps, pipe.Extract(ctx, rows))
			return r
		})
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze saved article files and write the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPipeline(cmd, true, func(ctx context.Context, pipe *pipeline.Pipeline) *pipeline.Result {
			return pipe.RunAnalyze(ctx)
		})
	},
}

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: extract -> analyze -> report",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPipeline(cmd, true, func(ctx context.Context, pipe *pipeline.Pipeline) *pipeline.Result {
			if dryRun {
				return pipe.DryRun()
			}
			return pipe.Run(ctx)
		})
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
}

// withPipeline loads the lexicon, opens the database, runs fn and prints
// the step summaries. needLexicon=false tolerates a missing stopwords
// directory, which the extract step does not use.
func withPipeline(cmd *cobra.Command, needLexicon bool, fn func(context.Context, *pipeline.Pipeline) *pipeline.Result) error {
	lex, _, err := lexicon.Load(cfg.Lexicon.StopwordsDir, cfg.Lexicon.MasterDictionaryDir)
	if err != nil {
		if needLexicon {
			return err
		}
		lex = lexicon.NewSet(nil, nil, nil)
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	pipe, err := pipeline.New(cfg, db, lex, telemetry.New())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var bars *progressBars
	if showProgress {
		bars = newProgressBars()
		pipe.SetProgress(bars.Update)
		if !verbose {
			log.SetOutput(io.Discard)
		}
	}

	result := fn(ctx, pipe)
	if bars != nil {
		bars.Stop()
		log.SetOutput(os.Stderr)
	}

	for i, step := range result.Steps {
		fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
		if step.Err != nil {
			fmt.Printf("  Error: %v\n", step.Err)
		} else {
			fmt.Printf("  %s\n", step.Summary)
		}
	}

	if err := result.Err(); err != nil {
		return err
	}
	if result.RunID != "" {
		fmt.Printf("\nRun %s complete. Run 'articlemetrics serve' to browse it.\n", result.RunID)
	}
	return nil
}

// --- text command ---

var textCmd = &cobra.Command{
	Use:   "text [file|-]",
	Short: "Analyze a single text and print its metrics as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			data []byte
			err  error
		)
		if len(args) == 0 || args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("reading text: %w", err)
		}

		lex, _, err := lexicon.Load(cfg.Lexicon.StopwordsDir, cfg.Lexicon.MasterDictionaryDir)
		if err != nil {
			return err
		}
		mode, err := analysis.ParseMode(cfg.Analysis.Tokenizer)
		if err != nil {
			return err
		}

		rec := analysis.NewEngine(analysis.Init(mode)).Analyze(string(data), lex)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if !cmd.Flags().Changed("port") && cfg.Server.Port != 0 {
			port = cfg.Server.Port
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, telemetry.New(), port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

func inputOptions() input.Options {
	return input.Options{
		IDColumn:  cfg.Input.IDColumn,
		URLColumn: cfg.Input.URLColumn,
		Sheet:     cfg.Input.Sheet,
	}
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return database.Open(database.PathIn(dataDir))
}
