package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the news assistant
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Corpus    CorpusConfig    `mapstructure:"corpus"`
	Session   SessionConfig   `mapstructure:"session"`
	Ranking   RankingConfig   `mapstructure:"ranking"`
	Documents DocumentsConfig `mapstructure:"documents"`
	Mail      MailConfig      `mapstructure:"mail"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address       string        `mapstructure:"address"`
	JWTSecret     string        `mapstructure:"jwt_secret"` // empty disables /admin
	TurnTimeout   time.Duration `mapstructure:"turn_timeout"`
	MigrationsDir string        `mapstructure:"migrations_dir"`
	AutoMigrate   bool          `mapstructure:"auto_migrate"`
}

// LLMConfig contains LLM provider configurations
type LLMConfig struct {
	Providers map[string]LLMProvider `mapstructure:"providers"`
	Routing   LLMRoutingConfig       `mapstructure:"routing"`
}

// LLMProvider represents a single OpenAI-compatible endpoint
type LLMProvider struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Model          string        `mapstructure:"model"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	Temperature    float64       `mapstructure:"temperature"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	MaxRetries     int           `mapstructure:"max_retries"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// LLMRoutingConfig names the provider used for each kind of call
type LLMRoutingConfig struct {
	Synthesis string `mapstructure:"synthesis"` // search answers, summaries, translations
	Relevance string `mapstructure:"relevance"` // domain filter YES/NO
	Category  string `mapstructure:"category"`  // ingestion categorisation
	Embedding string `mapstructure:"embedding"`
}

// SourcesConfig contains news source configurations
type SourcesConfig struct {
	NewsAPI NewsAPIConfig `mapstructure:"newsapi"`
}

// NewsAPIConfig contains NewsAPI settings
type NewsAPIConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	Endpoint string        `mapstructure:"endpoint"`
	Language string        `mapstructure:"language"`
	PageSize int           `mapstructure:"page_size"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Configured reports whether a redis endpoint was provided.
func (r RedisConfig) Configured() bool {
	return strings.TrimSpace(r.Host) != ""
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	port := r.Port
	if port == "" {
		port = "6379"
	}
	return fmt.Sprintf("%s:%s", r.Host, port)
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	return nil
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN builds a connection string from the discrete fields when URL is empty.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if err := p.Validate(); err != nil {
		return "", err
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl), nil
}

// CorpusConfig selects the news corpus backend.
type CorpusConfig struct {
	Backend    string `mapstructure:"backend"` // postgres | memory
	Dimensions int    `mapstructure:"dimensions"`
}

const (
	CorpusPostgres = "postgres"
	CorpusMemory   = "memory"
)

func (c CorpusConfig) Validate() error {
	switch c.Backend {
	case CorpusPostgres, CorpusMemory:
	default:
		return fmt.Errorf("corpus.backend must be %q or %q, got %q", CorpusPostgres, CorpusMemory, c.Backend)
	}
	if c.Dimensions <= 0 {
		return fmt.Errorf("corpus.dimensions must be > 0")
	}
	return nil
}

// SessionConfig selects the session store backend.
type SessionConfig struct {
	Backend     string        `mapstructure:"backend"` // memory | redis
	TTL         time.Duration `mapstructure:"ttl"`     // redis only, 0 keeps sessions for the process lifetime
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
}

const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
)

func (s SessionConfig) Validate() error {
	switch s.Backend {
	case SessionMemory, SessionRedis:
		return nil
	}
	return fmt.Errorf("session.backend must be %q or %q, got %q", SessionMemory, SessionRedis, s.Backend)
}

// RankingConfig tunes the retrieval pipeline.
type RankingConfig struct {
	Domain                string  `mapstructure:"domain"` // subject the relevance classifier admits
	Label                 string  `mapstructure:"label"`  // short label used in replies, e.g. "AI"
	CandidateLimit        int     `mapstructure:"candidate_limit"`
	TopK                  int     `mapstructure:"top_k"`
	KeywordBoost          float64 `mapstructure:"keyword_boost"`
	ScoreThreshold        float64 `mapstructure:"score_threshold"` // hard cutoff on blended score, 0 disables
	ClassifierConcurrency int     `mapstructure:"classifier_concurrency"`
	BodyPreview           int     `mapstructure:"body_preview"`
}

// Normalize applies defaults for unset ranking values.
func (c RankingConfig) Normalize() RankingConfig {
	c.Domain = strings.TrimSpace(c.Domain)
	if c.Domain == "" {
		c.Domain = "Artificial Intelligence (AI)"
	}
	c.Label = strings.TrimSpace(c.Label)
	if c.Label == "" {
		c.Label = "AI"
	}
	if c.TopK <= 0 {
		c.TopK = 5
	}
	if c.ClassifierConcurrency <= 0 {
		c.ClassifierConcurrency = 1
	}
	if c.BodyPreview <= 0 {
		c.BodyPreview = 500
	}
	return c
}

func (c RankingConfig) Validate() error {
	if c.CandidateLimit < 0 {
		return fmt.Errorf("ranking.candidate_limit cannot be negative")
	}
	if c.KeywordBoost < 0 {
		return fmt.Errorf("ranking.keyword_boost cannot be negative")
	}
	return nil
}

// DocumentsConfig controls the PDF renderer.
type DocumentsConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	FontPath  string `mapstructure:"font_path"` // UTF-8 TTF, required for non-Latin scripts
	Title     string `mapstructure:"title"`
}

// MailConfig contains SMTP delivery settings.
type MailConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	Subject  string        `mapstructure:"subject"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// IngestConfig controls when news is scraped.
type IngestConfig struct {
	OnStartup bool   `mapstructure:"on_startup"`
	Schedule  string `mapstructure:"schedule"` // cron expression or @hourly/@daily, empty disables
	// FullText fetches each article page and stores its readable body instead of the feed teaser.
	FullText         bool          `mapstructure:"full_text"`
	FullTextMaxChars int           `mapstructure:"full_text_max_chars"`
	FullTextTimeout  time.Duration `mapstructure:"full_text_timeout"`
}

func (c *Config) Validate() error {
	if err := c.Corpus.Validate(); err != nil {
		return err
	}
	if c.Corpus.Backend == CorpusPostgres {
		if err := c.Storage.Postgres.Validate(); err != nil {
			return err
		}
	}
	if err := c.Session.Validate(); err != nil {
		return err
	}
	if c.Session.Backend == SessionRedis {
		if err := c.Storage.Redis.Validate(); err != nil {
			return err
		}
	}
	if err := c.Ranking.Validate(); err != nil {
		return err
	}
	for role, name := range map[string]string{
		"synthesis": c.LLM.Routing.Synthesis,
		"relevance": c.LLM.Routing.Relevance,
		"category":  c.LLM.Routing.Category,
		"embedding": c.LLM.Routing.Embedding,
	} {
		if _, ok := c.LLM.Providers[name]; !ok {
			return fmt.Errorf("llm.routing.%s references unknown provider %q", role, name)
		}
	}
	return nil
}

// Provider returns the provider configuration routed for the given name.
func (c *Config) Provider(name string) (LLMProvider, error) {
	p, ok := c.LLM.Providers[name]
	if !ok {
		return LLMProvider{}, fmt.Errorf("llm provider %q not configured", name)
	}
	return p, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.log_level", "info")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.turn_timeout", 2*time.Minute)
	v.SetDefault("server.migrations_dir", "file://migrations")
	v.SetDefault("server.auto_migrate", true)
	v.SetDefault("server.jwt_secret", "")

	v.SetDefault("llm.providers.groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.providers.groq.model", "llama3-70b-8192")
	v.SetDefault("llm.providers.groq.temperature", 0.2)
	v.SetDefault("llm.providers.groq.max_tokens", 2048)
	v.SetDefault("llm.providers.groq.max_retries", 2)
	v.SetDefault("llm.providers.groq.timeout", 60*time.Second)
	v.SetDefault("llm.providers.mistral.base_url", "https://api.mistral.ai/v1")
	v.SetDefault("llm.providers.mistral.model", "mistral-small-latest")
	v.SetDefault("llm.providers.mistral.temperature", 0.2)
	v.SetDefault("llm.providers.mistral.max_tokens", 64)
	v.SetDefault("llm.providers.mistral.max_retries", 2)
	v.SetDefault("llm.providers.mistral.timeout", 30*time.Second)
	v.SetDefault("llm.providers.embeddings.base_url", "http://localhost:8081/v1")
	v.SetDefault("llm.providers.embeddings.embedding_model", "all-MiniLM-L6-v2")
	v.SetDefault("llm.providers.embeddings.max_retries", 2)
	v.SetDefault("llm.providers.embeddings.timeout", 30*time.Second)
	v.SetDefault("llm.routing.synthesis", "groq")
	v.SetDefault("llm.routing.relevance", "groq")
	v.SetDefault("llm.routing.category", "mistral")
	v.SetDefault("llm.routing.embedding", "embeddings")

	v.SetDefault("sources.newsapi.endpoint", "https://newsapi.org/v2/top-headlines")
	v.SetDefault("sources.newsapi.language", "en")
	v.SetDefault("sources.newsapi.page_size", 50)
	v.SetDefault("sources.newsapi.timeout", 20*time.Second)

	v.SetDefault("storage.postgres.host", "localhost")
	v.SetDefault("storage.postgres.port", "5432")
	v.SetDefault("storage.postgres.user", "postgres")
	v.SetDefault("storage.postgres.dbname", "news")
	v.SetDefault("storage.postgres.sslmode", "disable")
	v.SetDefault("storage.redis.port", "6379")
	v.SetDefault("storage.redis.timeout", 5*time.Second)

	v.SetDefault("corpus.backend", CorpusPostgres)
	v.SetDefault("corpus.dimensions", 384)

	v.SetDefault("session.backend", SessionMemory)
	v.SetDefault("session.ttl", time.Duration(0))
	v.SetDefault("session.lock_timeout", 2*time.Minute)

	v.SetDefault("ranking.domain", "Artificial Intelligence (AI)")
	v.SetDefault("ranking.label", "AI")
	v.SetDefault("ranking.candidate_limit", 50)
	v.SetDefault("ranking.top_k", 5)
	v.SetDefault("ranking.keyword_boost", 0.05)
	v.SetDefault("ranking.score_threshold", 0.0)
	v.SetDefault("ranking.classifier_concurrency", 4)
	v.SetDefault("ranking.body_preview", 500)

	v.SetDefault("documents.output_dir", "reports")
	v.SetDefault("documents.title", "News Report")

	v.SetDefault("mail.host", "smtp.gmail.com")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.subject", "News Report PDF")
	v.SetDefault("mail.timeout", 30*time.Second)

	v.SetDefault("ingest.on_startup", true)
	v.SetDefault("ingest.schedule", "@hourly")
	v.SetDefault("ingest.full_text", false)
	v.SetDefault("ingest.full_text_max_chars", 4000)
	v.SetDefault("ingest.full_text_timeout", 15*time.Second)
}

// legacy environment names accepted alongside NEWSAGENT_*
var envAliases = map[string][]string{
	"llm.providers.groq.api_key":    {"GROQ_API_KEY"},
	"llm.providers.mistral.api_key": {"MISTRAL_API_KEY"},
	"sources.newsapi.api_key":       {"NEWS_API_KEY"},
	"storage.postgres.url":          {"DATABASE_URL"},
	"mail.username":                 {"SMTP_EMAIL"},
	"mail.password":                 {"SMTP_PASSWORD"},
}

// LoadConfig loads config from file, environment and an optional .env file.
// A missing config file is tolerated when no explicit path is given.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	setDefaults(v)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if exe, err := os.Executable(); err == nil {
			exeDir := filepath.Dir(exe)
			v.AddConfigPath(exeDir)
			v.AddConfigPath(filepath.Join(exeDir, "..", "config"))
		}
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("NEWSAGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, aliases := range envAliases {
		envKey := "NEWSAGENT_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, envKey}, aliases...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Ranking = cfg.Ranking.Normalize()
	if cfg.Mail.From == "" {
		cfg.Mail.From = cfg.Mail.Username
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
