// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Indexer, Search, Feed, Extractor, Evaluation, Redis, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	Indexer    IndexerConfig    `yaml:"indexer"`
	Search     SearchConfig     `yaml:"search"`
	Feed       FeedConfig       `yaml:"feed"`
	Extractor  ExtractorConfig  `yaml:"extractor"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// PostgresConfig holds PostgreSQL connection parameters. Postgres is only
// used as a relevance-judgment source.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	DocumentFeed    string `yaml:"documentFeed"`
	AnalyticsEvents string `yaml:"analyticsEvents"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// IndexerConfig fixes the table capacities and document-id addressing used by
// the indexing engine. None of it can change once ingestion has started.
type IndexerConfig struct {
	Capacity        int    `yaml:"capacity"`
	TermSlots       int    `yaml:"termSlots"`
	PartitionOffset int    `yaml:"partitionOffset"`
	PartitionMarker string `yaml:"partitionMarker"`
	Stem            bool   `yaml:"stem"`
}

// SearchConfig controls query limits.
type SearchConfig struct {
	MaxResults     int `yaml:"maxResults"`
	DefaultLimit   int `yaml:"defaultLimit"`
	MaxQueryLength int `yaml:"maxQueryLength"`
}

// FeedConfig selects where documents are read from during the build phase.
type FeedConfig struct {
	Kind        string        `yaml:"kind"`
	Path        string        `yaml:"path"`
	IdleTimeout time.Duration `yaml:"idleTimeout"`
}

// ExtractorConfig describes the external process that turns an image into a
// feature word.
type ExtractorConfig struct {
	Command          string        `yaml:"command"`
	Args             []string      `yaml:"args"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold int           `yaml:"failureThreshold"`
	ResetTimeout     time.Duration `yaml:"resetTimeout"`
}

// EvaluationConfig controls where relevance judgments come from and how the
// query batch is run.
type EvaluationConfig struct {
	Source      string `yaml:"source"`
	File        string `yaml:"file"`
	TopK        int    `yaml:"topK"`
	Queries     int    `yaml:"queries"`
	Concurrency int    `yaml:"concurrency"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

const (
	FeedXML   = "xml"
	FeedKafka = "kafka"

	JudgmentsFile     = "file"
	JudgmentsPostgres = "postgres"
)

// Load reads a YAML config file (if provided), applies environment-variable
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config sized for the product collection the engine was
// first built for.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "vectorsearch",
			User:            "vectorsearch",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "vectorsearch-group",
			Topics: KafkaTopics{
				DocumentFeed:    "document-feed",
				AnalyticsEvents: "search-analytics",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 5 * time.Minute,
		},
		Indexer: IndexerConfig{
			Capacity:        23155,
			TermSlots:       23155 * 1296,
			PartitionOffset: 17688,
			PartitionMarker: "P",
		},
		Search: SearchConfig{
			MaxResults:     100,
			DefaultLimit:   10,
			MaxQueryLength: 863 * 1296,
		},
		Feed: FeedConfig{
			Kind:        FeedXML,
			Path:        "dataset/textDescDafitiPosthaus.xml",
			IdleTimeout: 5 * time.Second,
		},
		Extractor: ExtractorConfig{
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
		},
		Evaluation: EvaluationConfig{
			Source:      JudgmentsFile,
			File:        "dataset/judgments.yaml",
			TopK:        10,
			Queries:     50,
			Concurrency: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// Validate rejects configurations the engine cannot be built with.
func (c *Config) Validate() error {
	if c.Indexer.Capacity <= 0 {
		return fmt.Errorf("indexer.capacity must be positive, got %d", c.Indexer.Capacity)
	}
	if c.Indexer.TermSlots <= 0 {
		return fmt.Errorf("indexer.termSlots must be positive, got %d", c.Indexer.TermSlots)
	}
	if c.Indexer.PartitionOffset < 0 || c.Indexer.PartitionOffset >= c.Indexer.Capacity {
		return fmt.Errorf("indexer.partitionOffset %d outside document table of %d",
			c.Indexer.PartitionOffset, c.Indexer.Capacity)
	}
	if len(c.Indexer.PartitionMarker) != 1 {
		return fmt.Errorf("indexer.partitionMarker must be a single character, got %q", c.Indexer.PartitionMarker)
	}
	if c.Search.DefaultLimit <= 0 || c.Search.MaxResults < c.Search.DefaultLimit {
		return fmt.Errorf("search limits invalid: defaultLimit=%d maxResults=%d",
			c.Search.DefaultLimit, c.Search.MaxResults)
	}
	if c.Search.MaxQueryLength <= 0 {
		return fmt.Errorf("search.maxQueryLength must be positive, got %d", c.Search.MaxQueryLength)
	}
	switch c.Feed.Kind {
	case FeedXML, FeedKafka:
	default:
		return fmt.Errorf("unknown feed.kind %q", c.Feed.Kind)
	}
	switch c.Evaluation.Source {
	case JudgmentsFile, JudgmentsPostgres:
	default:
		return fmt.Errorf("unknown evaluation.source %q", c.Evaluation.Source)
	}
	if c.Evaluation.TopK <= 0 {
		return fmt.Errorf("evaluation.topK must be positive, got %d", c.Evaluation.TopK)
	}
	return nil
}

// applyEnvOverrides reads VS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("VS_FEED_KIND"); v != "" {
		cfg.Feed.Kind = v
	}
	if v := os.Getenv("VS_FEED_PATH"); v != "" {
		cfg.Feed.Path = v
	}
	if v := os.Getenv("VS_INDEXER_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Indexer.Capacity = n
		}
	}
	if v := os.Getenv("VS_INDEXER_STEM"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Indexer.Stem = b
		}
	}
	if v := os.Getenv("VS_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("VS_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("VS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("VS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("VS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("VS_EXTRACTOR_COMMAND"); v != "" {
		cfg.Extractor.Command = v
	}
	if v := os.Getenv("VS_EVALUATION_FILE"); v != "" {
		cfg.Evaluation.File = v
	}
	if v := os.Getenv("VS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("VS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
