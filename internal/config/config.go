package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvDocsDir  = "DOCSEARCH_DOCS_DIR"
	EnvDataDir  = "DOCSEARCH_DATA_DIR"
	EnvLogLevel = "DOCSEARCH_LOG_LEVEL"
)

// DocumentsConfig describes where documents are read from.
type DocumentsConfig struct {
	Dir        string   `yaml:"dir"`
	Extensions []string `yaml:"extensions"`
}

// StorageConfig names the persisted artifacts, relative to Dir.
type StorageConfig struct {
	Dir          string `yaml:"dir"`
	Fingerprint  string `yaml:"fingerprint"`
	SparseModel  string `yaml:"sparse_model"`
	DenseModel   string `yaml:"dense_model"`
	DenseVectors string `yaml:"dense_vectors"`
}

// DenseConfig holds the doc2vec hyperparameters.
type DenseConfig struct {
	VectorSize int     `yaml:"vector_size"`
	Window     int     `yaml:"window"`
	MinCount   int     `yaml:"min_count"`
	Epochs     int     `yaml:"epochs"`
	Negative   int     `yaml:"negative"`
	Workers    int     `yaml:"workers"`
	BatchSize  int     `yaml:"batch_size"`
	Alpha      float64 `yaml:"alpha"`
	MinAlpha   float64 `yaml:"min_alpha"`
	// Sample is the downsampling threshold; a negative value disables it.
	Sample float64 `yaml:"sample"`
	Seed   uint64  `yaml:"seed"`
}

// SearchConfig sets search defaults for the CLI and the TUI.
type SearchConfig struct {
	TopN             int    `yaml:"top_n"`
	Method           string `yaml:"method"`
	PreviewSentences int    `yaml:"preview_sentences"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Documents DocumentsConfig `yaml:"documents"`
	Storage   StorageConfig   `yaml:"storage"`
	Dense     DenseConfig     `yaml:"dense"`
	Search    SearchConfig    `yaml:"search"`
	// Categories maps document names to category labels for filtered searches.
	Categories map[string]string `yaml:"categories,omitempty"`
	LogLevel   string            `yaml:"log_level"`
}

// FingerprintPath returns the path of the document fingerprint file.
func (c *AppConfig) FingerprintPath() string {
	return filepath.Join(c.Storage.Dir, c.Storage.Fingerprint)
}

// SparseModelPath returns the path of the TF-IDF artifact.
func (c *AppConfig) SparseModelPath() string {
	return filepath.Join(c.Storage.Dir, c.Storage.SparseModel)
}

// DenseModelPath returns the path of the doc2vec model.
func (c *AppConfig) DenseModelPath() string {
	return filepath.Join(c.Storage.Dir, c.Storage.DenseModel)
}

// DenseVectorsPath returns the path of the document vector mapping.
func (c *AppConfig) DenseVectorsPath() string {
	return filepath.Join(c.Storage.Dir, c.Storage.DenseVectors)
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnv(cfg, os.LookupEnv)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	applyEnv(&cfg, os.LookupEnv)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/docsearch/config.yaml.
// If neither exists, it writes defaults to ~/.config/docsearch/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnv(cfg, os.LookupEnv)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docsearch", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Documents: DocumentsConfig{Dir: "documents", Extensions: []string{".txt"}},
		Storage: StorageConfig{
			Dir:          "data",
			Fingerprint:  "docs_status.json",
			SparseModel:  "tfidf_model.gob",
			DenseModel:   "doc2vec.model",
			DenseVectors: "doc2vec_vectors.json",
		},
		Dense: DenseConfig{
			VectorSize: 300,
			Window:     10,
			MinCount:   2,
			Epochs:     120,
			Negative:   10,
			Workers:    4,
			BatchSize:  32,
			Alpha:      0.025,
			MinAlpha:   0.0001,
			Sample:     1e-3,
			Seed:       1,
		},
		Search:   SearchConfig{TopN: 5, Method: "both", PreviewSentences: 3},
		LogLevel: "info",
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	d := defaultConfig()
	if cfg.Documents.Dir == "" {
		cfg.Documents.Dir = d.Documents.Dir
	}
	if len(cfg.Documents.Extensions) == 0 {
		cfg.Documents.Extensions = d.Documents.Extensions
	}
	setString(&cfg.Storage.Dir, d.Storage.Dir)
	setString(&cfg.Storage.Fingerprint, d.Storage.Fingerprint)
	setString(&cfg.Storage.SparseModel, d.Storage.SparseModel)
	setString(&cfg.Storage.DenseModel, d.Storage.DenseModel)
	setString(&cfg.Storage.DenseVectors, d.Storage.DenseVectors)

	setInt(&cfg.Dense.VectorSize, d.Dense.VectorSize)
	setInt(&cfg.Dense.Window, d.Dense.Window)
	setInt(&cfg.Dense.MinCount, d.Dense.MinCount)
	setInt(&cfg.Dense.Epochs, d.Dense.Epochs)
	setInt(&cfg.Dense.Negative, d.Dense.Negative)
	setInt(&cfg.Dense.Workers, d.Dense.Workers)
	setInt(&cfg.Dense.BatchSize, d.Dense.BatchSize)
	if cfg.Dense.Alpha <= 0 {
		cfg.Dense.Alpha = d.Dense.Alpha
	}
	if cfg.Dense.MinAlpha <= 0 {
		cfg.Dense.MinAlpha = d.Dense.MinAlpha
	}
	if cfg.Dense.Sample == 0 {
		cfg.Dense.Sample = d.Dense.Sample
	}
	if cfg.Dense.Seed == 0 {
		cfg.Dense.Seed = d.Dense.Seed
	}

	setInt(&cfg.Search.TopN, d.Search.TopN)
	setInt(&cfg.Search.PreviewSentences, d.Search.PreviewSentences)
	cfg.Search.Method = strings.ToLower(strings.TrimSpace(cfg.Search.Method))
	setString(&cfg.Search.Method, d.Search.Method)
	setString(&cfg.LogLevel, d.LogLevel)
}

func applyEnv(cfg *AppConfig, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvDocsDir); ok && v != "" {
		cfg.Documents.Dir = v
	}
	if v, ok := lookup(EnvDataDir); ok && v != "" {
		cfg.Storage.Dir = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = v
	}
}

func setString(dst *string, def string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = def
	}
}

func setInt(dst *int, def int) {
	if *dst <= 0 {
		*dst = def
	}
}
