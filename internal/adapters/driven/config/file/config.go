package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/leaguelore/leaguelore-cli/internal/core/domain"
)

// Config is the full application configuration.
type Config struct {
	// DataDir is where the SQLite database lives.
	// Defaults to ~/.leaguelore/data.
	DataDir string `toml:"data_dir"`

	Ingest     IngestConfig     `toml:"ingest"`
	Chunking   ChunkingConfig   `toml:"chunking"`
	Retrieval  RetrievalConfig  `toml:"retrieval"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
	Classifier ClassifierConfig `toml:"classifier"`
	Roster     RosterConfig     `toml:"roster"`
}

// IngestConfig tunes the ingestion pipeline.
type IngestConfig struct {
	// Workers is the number of parallel file workers.
	Workers int `toml:"workers"`

	// MinBodyLength drops email messages with shorter bodies.
	MinBodyLength int `toml:"min_body_length"`

	// MinNoteLength drops notebook notes with shorter content.
	// 0 keeps everything, including empty notes.
	MinNoteLength int `toml:"min_note_length"`

	// ThreadWindowDays bounds subject-based email threading.
	ThreadWindowDays int `toml:"thread_window_days"`

	// SubjectKeywords, when non-empty, keeps only email threads whose
	// subject contains at least one keyword.
	SubjectKeywords []string `toml:"subject_keywords"`
}

// ChunkingConfig tunes the chunker.
type ChunkingConfig struct {
	MaxTokens     int `toml:"max_tokens"`
	OverlapTokens int `toml:"overlap_tokens"`
}

// RetrievalConfig tunes hybrid retrieval.
type RetrievalConfig struct {
	// Alpha is the lexical weight in [0, 1]; semantic weight is 1-Alpha.
	Alpha float64 `toml:"alpha"`

	// K is the default result count.
	K int `toml:"k"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	// Provider is "ollama", "openai" or "none".
	Provider string `toml:"provider"`

	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
	APIKey  string `toml:"api_key"`

	// BatchSize is how many chunks are embedded per batch.
	BatchSize int `toml:"batch_size"`

	// RatePerSecond caps embedding calls.
	RatePerSecond float64 `toml:"rate_per_second"`

	// MaxRetries bounds retry attempts per batch.
	MaxRetries int `toml:"max_retries"`
}

// ClassifierConfig selects and tunes the model classifier tier.
type ClassifierConfig struct {
	// Provider is "ollama" or "none".
	Provider string `toml:"provider"`

	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`

	// ConfidenceThreshold is the minimum accepted model confidence.
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
}

// RosterConfig declares the league members and teams.
type RosterConfig struct {
	// Members maps canonical name -> aliases.
	Members map[string][]string `toml:"members"`

	// Teams lists known team names.
	Teams []string `toml:"teams"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Ingest: IngestConfig{
			Workers:          4,
			MinBodyLength:    20,
			MinNoteLength:    0,
			ThreadWindowDays: 30,
		},
		Chunking: ChunkingConfig{
			MaxTokens:     320,
			OverlapTokens: 32,
		},
		Retrieval: RetrievalConfig{
			Alpha: 0.3,
			K:     10,
		},
		Embedding: EmbeddingConfig{
			Provider:      "ollama",
			BatchSize:     16,
			RatePerSecond: 4,
			MaxRetries:    3,
		},
		Classifier: ClassifierConfig{
			Provider:            "ollama",
			ConfidenceThreshold: 0.5,
		},
	}
}

// Load reads configuration from path. A missing file returns defaults;
// present values override defaults field by field.
func Load(path string) (*Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".leaguelore", "config.toml")
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects out-of-range tuning values.
func (c *Config) validate() error {
	if c.Retrieval.Alpha < 0 || c.Retrieval.Alpha > 1 {
		return fmt.Errorf("retrieval.alpha must be in [0, 1], got %v: %w",
			c.Retrieval.Alpha, domain.ErrInvalidInput)
	}
	if c.Chunking.MaxTokens <= 0 {
		return fmt.Errorf("chunking.max_tokens must be positive: %w", domain.ErrInvalidInput)
	}
	if c.Chunking.OverlapTokens < 0 {
		return fmt.Errorf("chunking.overlap_tokens must not be negative: %w", domain.ErrInvalidInput)
	}
	if c.Ingest.Workers <= 0 {
		return fmt.Errorf("ingest.workers must be positive: %w", domain.ErrInvalidInput)
	}
	return nil
}

// BuildRoster constructs the domain roster from the config. An empty
// roster section yields a valid empty roster.
func (c *Config) BuildRoster() (*domain.Roster, error) {
	roster, err := domain.NewRoster(c.Roster.Members, c.Roster.Teams)
	if err != nil {
		return nil, fmt.Errorf("building roster: %w", err)
	}
	return roster, nil
}
