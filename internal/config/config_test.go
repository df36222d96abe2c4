package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if len(cfg.Feeds) == 0 {
		t.Error("expected feeds to be populated")
	}

	if cfg.Input.IDColumn != "URL_ID" {
		t.Errorf("expected id column 'URL_ID', got %q", cfg.Input.IDColumn)
	}

	if cfg.Fetch.Extractor != "selector" {
		t.Errorf("expected extractor 'selector', got %q", cfg.Fetch.Extractor)
	}

	if cfg.Analysis.Tokenizer != "auto" {
		t.Errorf("expected tokenizer 'auto', got %q", cfg.Analysis.Tokenizer)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Input.Path != "Input.xlsx" {
		t.Errorf("expected input path 'Input.xlsx', got %q", cfg.Input.Path)
	}
	if cfg.Fetch.FallbackExtractor != "readability" {
		t.Errorf("expected fallback 'readability', got %q", cfg.Fetch.FallbackExtractor)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
lexicon:
  stopwords_dir: /data/stop
analysis:
  tokenizer: naive
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Lexicon.StopwordsDir != "/data/stop" {
		t.Errorf("expected stopwords dir '/data/stop', got %q", cfg.Lexicon.StopwordsDir)
	}
	if cfg.Analysis.Tokenizer != "naive" {
		t.Errorf("expected tokenizer 'naive', got %q", cfg.Analysis.Tokenizer)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Lexicon.MasterDictionaryDir != "MasterDictionary" {
		t.Errorf("expected default master dictionary dir, got %q", cfg.Lexicon.MasterDictionaryDir)
	}
	if cfg.Fetch.ContentSelector != "div.td-post-content.tagdiv-type" {
		t.Errorf("expected default content selector, got %q", cfg.Fetch.ContentSelector)
	}
	if cfg.Analysis.Workers != 4 {
		t.Errorf("expected default workers 4, got %d", cfg.Analysis.Workers)
	}
}

func TestParseInvalidTimeout(t *testing.T) {
	_, err := parse([]byte("fetch:\n  timeout: soon\n"))
	if err == nil {
		t.Fatal("expected error for invalid timeout")
	}
}

func TestFetchTimeout(t *testing.T) {
	cfg, err := parse(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d, err := cfg.FetchTimeout()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 15*time.Second {
		t.Errorf("expected 15s, got %v", d)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if len(cfg.Feeds) == 0 {
		t.Error("expected feeds to be populated from file")
	}
}

func TestResolveConfigPathExplicitMissing(t *testing.T) {
	_, err := ResolveConfigPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	defaultDir := cfg.GetDataDir()
	if defaultDir == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Output.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
	if cfg.GetArticlesDir() != filepath.Join("/custom/path", "extracted_articles") {
		t.Errorf("unexpected articles dir %q", cfg.GetArticlesDir())
	}

	cfg.Output.ArticlesDir = "articles"
	if cfg.GetArticlesDir() != "articles" {
		t.Errorf("expected 'articles', got %q", cfg.GetArticlesDir())
	}
}
