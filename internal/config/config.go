package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Input    Input    `yaml:"input"`
	Feeds    []Feed   `yaml:"feeds"`
	Lexicon  Lexicon  `yaml:"lexicon"`
	Fetch    Fetch    `yaml:"fetch"`
	Analysis Analysis `yaml:"analysis"`
	Output   Output   `yaml:"output"`
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
}

type Input struct {
	Path      string `yaml:"path"`
	IDColumn  string `yaml:"id_column"`
	URLColumn string `yaml:"url_column"`
	Sheet     string `yaml:"sheet"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type Lexicon struct {
	StopwordsDir        string `yaml:"stopwords_dir"`
	MasterDictionaryDir string `yaml:"master_dictionary_dir"`
}

type Fetch struct {
	Timeout           string  `yaml:"timeout"`
	UserAgent         string  `yaml:"user_agent"`
	Concurrency       int     `yaml:"concurrency"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Extractor         string  `yaml:"extractor"`
	FallbackExtractor string  `yaml:"fallback_extractor"`
	TitleSelector     string  `yaml:"title_selector"`
	ContentSelector   string  `yaml:"content_selector"`
}

type Analysis struct {
	Tokenizer string `yaml:"tokenizer"`
	Workers   int    `yaml:"workers"`
}

type Output struct {
	DataDir     string `yaml:"data_dir"`
	ArticlesDir string `yaml:"articles_dir"`
	ReportPath  string `yaml:"report_path"`
	Format      string `yaml:"format"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for articlemetrics.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "articlemetrics")
}

// DataDir returns the XDG data directory for articlemetrics.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "articlemetrics")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/articlemetrics/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'articlemetrics init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the configuration of the embedded default.yaml.
func Default() (*Config, error) {
	return parse(DefaultConfigYAML)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Input: Input{
			IDColumn:  "URL_ID",
			URLColumn: "URL",
		},
		Lexicon: Lexicon{
			StopwordsDir:        "StopWords",
			MasterDictionaryDir: "MasterDictionary",
		},
		Fetch: Fetch{
			Timeout:           "15s",
			Concurrency:       4,
			RequestsPerSecond: 2,
			Extractor:         "selector",
			FallbackExtractor: "readability",
			TitleSelector:     "h1.entry-title",
			ContentSelector:   "div.td-post-content.tagdiv-type",
		},
		Analysis: Analysis{
			Tokenizer: "auto",
			Workers:   4,
		},
		Output:  Output{ReportPath: "output.csv"},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if _, err := cfg.FetchTimeout(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// GetArticlesDir returns where extracted article text files are kept.
func (c *Config) GetArticlesDir() string {
	if c.Output.ArticlesDir != "" {
		return c.Output.ArticlesDir
	}
	return filepath.Join(c.GetDataDir(), "extracted_articles")
}

// FetchTimeout parses fetch.timeout. Empty means no explicit timeout.
func (c *Config) FetchTimeout() (time.Duration, error) {
	s := strings.TrimSpace(c.Fetch.Timeout)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parsing fetch.timeout %q: %w", c.Fetch.Timeout, err)
	}
	return d, nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
