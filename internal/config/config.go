package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	EmbeddingModel string `toml:"embedding_model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Dimension      int    `toml:"dimension"` // "hash" provider only; 0 follows vector.dimension
}

type MemgraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type ResolutionConfig struct {
	MatchThreshold      float64 `toml:"match_threshold"`
	SuggestionThreshold float64 `toml:"suggestion_threshold"`
	BioWeight           float64 `toml:"bio_weight"`
	NameWeight          float64 `toml:"name_weight"`
	Blocking            string  `toml:"blocking"` // "token" or "all"
}

type RerankConfig struct {
	Boost    float64  `toml:"boost"`
	Keywords []string `toml:"keywords"`
	// MatchQueryTerms also boosts bios sharing a token with the query.
	MatchQueryTerms bool `toml:"match_query_terms"`
	// LLM enables the LLM judge; keyword boost stays as its fallback.
	LLM     bool `toml:"llm"`
	LLMTopN int  `toml:"llm_top_n"`
}

type VectorConfig struct {
	Backend   string `toml:"backend"` // "memgraph", "badger" or "memory"
	Path      string `toml:"path"`    // Badger data directory; empty keeps badger in memory
	IndexName string `toml:"index_name"`
	Namespace string `toml:"namespace"`
	Dimension int    `toml:"dimension"`
	Metric    string `toml:"metric"`
	TopK      int    `toml:"top_k"`
	BatchSize int    `toml:"batch_size"`
}

type StoreConfig struct {
	Backend string `toml:"backend"` // "memgraph", "badger" or "memory"
	// Path is the badger data directory; empty keeps badger in memory.
	Path string `toml:"path"`
}

type ConcurrencyConfig struct {
	ResolveWorkers int `toml:"resolve_workers"`
	EmbedWorkers   int `toml:"embed_workers"`
}

type CircuitBreakerConfig struct {
	MaxRequests  uint32   `toml:"max_requests"`
	Interval     Duration `toml:"interval"`
	Timeout      Duration `toml:"timeout"`
	FailureRatio float64  `toml:"failure_ratio"`
	MinRequests  uint32   `toml:"min_requests"`
}

// Duration reads TOML strings such as "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type ServerConfig struct {
	Port string `toml:"port"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "text" or "json"
}

type Config struct {
	LLM            LLMConfig            `toml:"llm"`
	Memgraph       MemgraphConfig       `toml:"memgraph"`
	Resolution     ResolutionConfig     `toml:"resolution"`
	Rerank         RerankConfig         `toml:"rerank"`
	Vector         VectorConfig         `toml:"vector"`
	Store          StoreConfig          `toml:"store"`
	Concurrency    ConcurrencyConfig    `toml:"concurrency"`
	CircuitBreaker CircuitBreakerConfig `toml:"circuit_breaker"`
	Server         ServerConfig         `toml:"server"`
	Log            LogConfig            `toml:"log"`
}

// Default returns a configuration that runs fully offline with in-memory
// backends.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "hash",
		},
		Memgraph: MemgraphConfig{
			URI: "bolt://localhost:7687",
		},
		Resolution: ResolutionConfig{
			MatchThreshold:      0.85,
			SuggestionThreshold: 0.5,
			BioWeight:           0.8,
			NameWeight:          0.2,
			Blocking:            "token",
		},
		Rerank: RerankConfig{
			Boost:    0.1,
			Keywords: []string{"AI", "Tech"},
			LLMTopN:  10,
		},
		Vector: VectorConfig{
			Backend:   "memory",
			IndexName: "increator-prod",
			Namespace: "prod",
			Dimension: 1536,
			Metric:    "cos",
			TopK:      500,
			BatchSize: 10,
		},
		Store: StoreConfig{
			Backend: "memory",
		},
		Concurrency: ConcurrencyConfig{
			ResolveWorkers: 4,
			EmbedWorkers:   2,
		},
		CircuitBreaker: CircuitBreakerConfig{
			MaxRequests:  1,
			Interval:     Duration{time.Minute},
			Timeout:      Duration{30 * time.Second},
			FailureRatio: 0.6,
			MinRequests:  5,
		},
		Server: ServerConfig{
			Port: "8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a TOML file over the defaults. Keys missing from the file keep
// their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides file values with environment variables.
func (c *Config) ApplyEnv() {
	setString(&c.Memgraph.URI, "MEMGRAPH_URI")
	setString(&c.Memgraph.User, "MEMGRAPH_USER")
	setString(&c.Memgraph.Password, "MEMGRAPH_PASSWORD")
	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.LLM.EmbeddingModel, "LLM_EMBEDDING_MODEL")
	setString(&c.LLM.APIKey, "LLM_API_KEY")
	setString(&c.LLM.BaseURL, "LLM_BASE_URL")
	setString(&c.Server.Port, "PORT")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	setString(&c.Vector.Backend, "VECTOR_BACKEND")
	setString(&c.Vector.Path, "VECTOR_PATH")
	setString(&c.Store.Backend, "STORE_BACKEND")
	setString(&c.Store.Path, "STORE_PATH")
	if v := os.Getenv("VECTOR_DIMENSION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Vector.Dimension = n
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) Validate() error {
	var errs []error

	r := c.Resolution
	if r.SuggestionThreshold >= r.MatchThreshold {
		errs = append(errs, fmt.Errorf("resolution.suggestion_threshold (%v) must be below match_threshold (%v)", r.SuggestionThreshold, r.MatchThreshold))
	}
	for name, w := range map[string]float64{"bio_weight": r.BioWeight, "name_weight": r.NameWeight} {
		if w < 0 || w > 1 {
			errs = append(errs, fmt.Errorf("resolution.%s must be within [0,1], got %v", name, w))
		}
	}
	if c.Vector.TopK <= 0 {
		errs = append(errs, fmt.Errorf("vector.top_k must be positive, got %d", c.Vector.TopK))
	}
	if c.Vector.Dimension <= 0 {
		errs = append(errs, fmt.Errorf("vector.dimension must be positive, got %d", c.Vector.Dimension))
	}
	if c.Vector.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("vector.batch_size must be positive, got %d", c.Vector.BatchSize))
	}

	return errors.Join(errs...)
}

// FromEnvironment loads the file named by CONFIG_PATH (default
// config/config.toml), falling back to defaults when it does not exist, then
// applies environment overrides.
func FromEnvironment() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.toml"
	}

	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnv()
	return cfg, nil
}
