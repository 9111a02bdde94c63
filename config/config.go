package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Vector store backends
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreQdrant   = "qdrant"
)

// Embedding and generation providers
const (
	ProviderLocal      = "local"
	ProviderOllama     = "ollama"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
	ProviderCompatible = "compatible"
)

// Generation defaults for the Ollama provider
const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "llama3.2:3b"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	VectorStore   VectorStoreConfig   `yaml:"vector_store"`
	Embeddings    EmbeddingsConfig    `yaml:"embeddings"`
	Generation    GenerationConfig    `yaml:"generation"`
	Chunking      ChunkingConfig      `yaml:"chunking"`
	Observability ObservabilityConfig `yaml:"observability"`
	Environment   string              `yaml:"environment"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	ReadTimeout        time.Duration `yaml:"read_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	UploadMaxBytes     int64         `yaml:"upload_max_bytes"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
}

// VectorStoreConfig selects and configures the chunk store
type VectorStoreConfig struct {
	Backend    string         `yaml:"backend"`
	Collection string         `yaml:"collection"`
	Database   DatabaseConfig `yaml:"database"`
	SQLitePath string         `yaml:"sqlite_path"`
	Qdrant     QdrantConfig   `yaml:"qdrant"`
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string        `yaml:"url"`
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	User             string        `yaml:"user"`
	Password         string        `yaml:"password"`
	Database         string        `yaml:"name"`
	SSLMode          string        `yaml:"sslmode"`
	MaxOpenConns     int           `yaml:"max_open_conns"`
	MaxIdleConns     int           `yaml:"max_idle_conns"`
	ConnMaxLifetime  time.Duration `yaml:"conn_max_lifetime"`
}

// QdrantConfig holds the Qdrant gRPC endpoint
type QdrantConfig struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// EmbeddingsConfig configures the embedding provider
type EmbeddingsConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Dimensions  int           `yaml:"dimensions"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
}

// GenerationConfig configures the answer generator
type GenerationConfig struct {
	Provider      string        `yaml:"provider"`
	Model         string        `yaml:"model"`
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"`
	Timeout       time.Duration `yaml:"timeout"`
	InitTimeout   time.Duration `yaml:"init_timeout"`
	PullTimeout   time.Duration `yaml:"pull_timeout"`
	ReadyChecks   int           `yaml:"ready_checks"`
	ReadyInterval time.Duration `yaml:"ready_interval"`
	Temperature   float64       `yaml:"temperature"`
	TopP          float64       `yaml:"top_p"`
	TopK          int           `yaml:"top_k"`
}

// ChunkingConfig controls how extracted text is split
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // json or console
}

// Defaults returns the configuration used when neither a file nor the environment set a value
func Defaults() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               3000,
			ReadTimeout:        30 * time.Second,
			WriteTimeout:       90 * time.Second,
			ShutdownTimeout:    10 * time.Second,
			RequestTimeout:     60 * time.Second,
			UploadMaxBytes:     32 << 20,
			CORSAllowedOrigins: []string{"*"},
		},
		VectorStore: VectorStoreConfig{
			Backend:    StoreMemory,
			Collection: "pdf-documents",
			Database: DatabaseConfig{
				Host:            "localhost",
				Port:            5432,
				User:            "dev",
				Database:        "pdfqa",
				SSLMode:         "disable",
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
			},
			SQLitePath: "pdfqa.db",
			Qdrant: QdrantConfig{
				URL:     "http://localhost:6334",
				Timeout: 10 * time.Second,
			},
		},
		Embeddings: EmbeddingsConfig{
			Provider:    ProviderLocal,
			Dimensions:  384,
			Concurrency: 4,
			Timeout:     60 * time.Second,
		},
		Generation: GenerationConfig{
			Provider:      ProviderOllama,
			Model:         DefaultOllamaModel,
			BaseURL:       DefaultOllamaURL,
			Timeout:       2 * time.Minute,
			InitTimeout:   20 * time.Minute,
			PullTimeout:   15 * time.Minute,
			ReadyChecks:   3,
			ReadyInterval: time.Second,
			Temperature:   0.3,
			TopP:          0.9,
			TopK:          40,
		},
		Chunking: ChunkingConfig{
			Size:    800,
			Overlap: 200,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// New creates a new Config: defaults, then the YAML file named by CONFIG_FILE, then environment variables
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.dropOllamaDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// dropOllamaDefaults clears the Ollama model and URL defaults when another
// generation provider is selected, so that provider falls back to its own.
func (c *Config) dropOllamaDefaults() {
	g := &c.Generation
	if g.Provider == ProviderOllama {
		return
	}
	if g.BaseURL == DefaultOllamaURL {
		g.BaseURL = ""
	}
	if g.Model == DefaultOllamaModel {
		g.Model = ""
	}
}

// applyEnv overrides fields whose environment variable is set
func (c *Config) applyEnv() {
	c.Environment = getEnv("ENVIRONMENT", c.Environment)

	s := &c.Server
	s.Host = getEnv("SERVER_HOST", s.Host)
	s.Port = getPort(s.Port)
	s.ReadTimeout = getEnvAsDuration("SERVER_READ_TIMEOUT", s.ReadTimeout)
	s.WriteTimeout = getEnvAsDuration("SERVER_WRITE_TIMEOUT", s.WriteTimeout)
	s.ShutdownTimeout = getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", s.ShutdownTimeout)
	s.RequestTimeout = getEnvAsDuration("SERVER_REQUEST_TIMEOUT", s.RequestTimeout)
	s.UploadMaxBytes = int64(getEnvAsInt("UPLOAD_MAX_BYTES", int(s.UploadMaxBytes)))
	s.CORSAllowedOrigins = getEnvAsList("CORS_ALLOWED_ORIGINS", s.CORSAllowedOrigins)

	v := &c.VectorStore
	v.Backend = strings.ToLower(getEnv("VECTOR_STORE", v.Backend))
	v.Collection = getEnv("VECTOR_COLLECTION", v.Collection)
	v.SQLitePath = getEnv("SQLITE_PATH", v.SQLitePath)
	v.Qdrant.URL = getEnv("QDRANT_URL", v.Qdrant.URL)
	v.Qdrant.APIKey = getEnv("QDRANT_API_KEY", v.Qdrant.APIKey)
	v.Qdrant.Timeout = getEnvAsDuration("QDRANT_TIMEOUT", v.Qdrant.Timeout)
	applyDatabaseEnv(&v.Database)

	e := &c.Embeddings
	e.Provider = strings.ToLower(getEnv("EMBEDDINGS_PROVIDER", e.Provider))
	e.Model = getEnv("EMBEDDINGS_MODEL", e.Model)
	e.BaseURL = getEnv("EMBEDDINGS_BASE_URL", e.BaseURL)
	e.APIKey = getEnv("EMBEDDINGS_API_KEY", e.APIKey)
	e.Dimensions = getEnvAsInt("EMBEDDINGS_DIMENSIONS", e.Dimensions)
	e.Concurrency = getEnvAsInt("EMBEDDINGS_CONCURRENCY", e.Concurrency)
	e.Timeout = getEnvAsDuration("EMBEDDINGS_TIMEOUT", e.Timeout)

	g := &c.Generation
	g.Provider = strings.ToLower(getEnv("GENERATION_PROVIDER", g.Provider))
	g.Model = getEnv("GENERATION_MODEL", g.Model)
	g.BaseURL = getEnv("GENERATION_BASE_URL", g.BaseURL)
	g.APIKey = getEnv("GENERATION_API_KEY", g.APIKey)
	g.Timeout = getEnvAsDuration("GENERATION_TIMEOUT", g.Timeout)
	g.InitTimeout = getEnvAsDuration("GENERATION_INIT_TIMEOUT", g.InitTimeout)
	g.PullTimeout = getEnvAsDuration("GENERATION_PULL_TIMEOUT", g.PullTimeout)
	g.ReadyChecks = getEnvAsInt("GENERATION_READY_CHECKS", g.ReadyChecks)
	g.ReadyInterval = getEnvAsDuration("GENERATION_READY_INTERVAL", g.ReadyInterval)
	g.Temperature = getEnvAsFloat("GENERATION_TEMPERATURE", g.Temperature)
	g.TopP = getEnvAsFloat("GENERATION_TOP_P", g.TopP)
	g.TopK = getEnvAsInt("GENERATION_TOP_K", g.TopK)

	c.Chunking.Size = getEnvAsInt("CHUNK_SIZE", c.Chunking.Size)
	c.Chunking.Overlap = getEnvAsInt("CHUNK_OVERLAP", c.Chunking.Overlap)

	c.Observability.LogLevel = getEnv("LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.LogFormat = getEnv("LOG_FORMAT", c.Observability.LogFormat)
}

// Validate checks that backends are known and their required settings are present
func (c *Config) Validate() error {
	switch c.VectorStore.Backend {
	case StoreMemory, StoreQdrant:
	case StorePostgres:
		db := c.VectorStore.Database
		if db.ConnectionString == "" && db.Host == "" {
			return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
		}
		if db.ConnectionString == "" {
			if db.User == "" {
				return fmt.Errorf("database user is required")
			}
			if db.Database == "" {
				return fmt.Errorf("database name is required")
			}
		}
	case StoreSQLite:
		if c.VectorStore.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required")
		}
	default:
		return fmt.Errorf("unknown vector store: %q", c.VectorStore.Backend)
	}

	if c.VectorStore.Backend == StoreQdrant && c.VectorStore.Qdrant.URL == "" {
		return fmt.Errorf("qdrant url is required")
	}
	if c.VectorStore.Collection == "" {
		return fmt.Errorf("vector collection is required")
	}

	switch c.Embeddings.Provider {
	case ProviderLocal, ProviderOllama:
	case ProviderOpenAI:
		if c.Embeddings.APIKey == "" {
			return fmt.Errorf("embeddings api key is required for provider %s", c.Embeddings.Provider)
		}
	default:
		return fmt.Errorf("unknown embeddings provider: %q", c.Embeddings.Provider)
	}

	switch c.Generation.Provider {
	case ProviderLocal, ProviderOllama, ProviderCompatible:
	case ProviderOpenAI, ProviderAnthropic, ProviderOpenRouter:
		if c.Generation.APIKey == "" {
			return fmt.Errorf("generation api key is required for provider %s", c.Generation.Provider)
		}
	default:
		return fmt.Errorf("unknown generation provider: %q", c.Generation.Provider)
	}

	if c.Chunking.Size <= 0 {
		return fmt.Errorf("chunk size must be positive")
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunk overlap must be in [0, chunk size)")
	}

	if c.Server.UploadMaxBytes <= 0 {
		return fmt.Errorf("upload max bytes must be positive")
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// applyDatabaseEnv reads DATABASE_URL or DB_* env vars
func applyDatabaseEnv(db *DatabaseConfig) {
	db.ConnectionString = getEnv("DATABASE_URL", db.ConnectionString)
	db.Host = getEnv("DB_HOST", db.Host)
	db.Port = getEnvAsInt("DB_PORT", db.Port)
	db.User = getEnv("DB_USER", db.User)
	db.Password = getEnv("DB_PASSWORD", db.Password)
	db.Database = getEnv("DB_NAME", db.Database)
	db.SSLMode = getEnv("DB_SSLMODE", db.SSLMode)
	db.MaxOpenConns = getEnvAsInt("DB_MAX_OPEN_CONNS", db.MaxOpenConns)
	db.MaxIdleConns = getEnvAsInt("DB_MAX_IDLE_CONNS", db.MaxIdleConns)
	db.ConnMaxLifetime = getEnvAsDuration("DB_CONN_MAX_LIFETIME", db.ConnMaxLifetime)
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars
func getPort(defaultValue int) int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return defaultValue
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma separated value, dropping empty entries
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
