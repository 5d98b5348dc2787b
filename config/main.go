// Package config builds the process configuration once at startup.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	StorageMemory    = "memory"
	StorageFirestore = "firestore"
	StoragePostgres  = "postgres"

	SpeechPolly     = "polly"
	SpeechOpenAI    = "openai"
	SpeechDeepInfra = "deepinfra"
	SpeechCartesia  = "cartesia"

	ModelGemini = "gemini"
	ModelGroq   = "groq"

	// MaxHistoryLimit caps fetchHistory; HISTORY_LIMIT may lower it, never raise it.
	MaxHistoryLimit = 20
)

type Config struct {
	Port           string        `env:"PORT,default=8080"`
	Production     bool          `env:"PRODUCTION,default=false"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT,default=120s"`

	ModelProvider string `env:"MODEL_PROVIDER,default=gemini"`

	Gemini   GeminiConfig
	Groq     GroqConfig
	Storage  StorageConfig
	Speech   SpeechConfig
	Deepgram DeepgramConfig
	Identity IdentityConfig

	HistoryLimit int `env:"HISTORY_LIMIT,default=20"`
}

type GeminiConfig struct {
	APIKey         string `env:"GEMINI_API_KEY"`
	EmergentLLMKey string `env:"EMERGENT_LLM_KEY"`
	Model          string `env:"GEMINI_MODEL,default=gemini-2.5-flash"`
}

// Key returns the Gemini key, falling back to the Emergent key.
func (g GeminiConfig) Key() string {
	if g.APIKey != "" {
		return g.APIKey
	}
	return g.EmergentLLMKey
}

type GroqConfig struct {
	APIKey string `env:"GROQ_SECRET_KEY"`
	Model  string `env:"GROQ_MODEL,default=moonshotai/kimi-k2-instruct"`
}

type StorageConfig struct {
	Backend string `env:"STORAGE_BACKEND,default=memory"`

	GCPProject      string `env:"GCP_PROJECT"`
	CredentialsFile string `env:"GOOGLE_APPLICATION_CREDENTIALS"`

	Postgres PostgresConfig
}

type PostgresConfig struct {
	Host     string `env:"POSTGRES_DB_HOST,default=localhost"`
	Port     string `env:"POSTGRES_DB_PORT,default=5432"`
	User     string `env:"POSTGRES_DB_USER"`
	Password string `env:"POSTGRES_DB_PASS"`
	Name     string `env:"POSTGRES_DB_NAME"`
	SSLMode  string `env:"POSTGRES_DB_SSLMODE,default=disable"`
}

// DSN renders the lib/pq keyword/value connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Name, p.SSLMode,
	)
}

type SpeechConfig struct {
	Provider string `env:"SPEECH_PROVIDER,default=polly"`

	AWSRegion          string `env:"AWS_REGION,default=us-east-1"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`

	OpenAIKey    string `env:"OPENAI_SECRET_KEY"`
	DeepInfraKey string `env:"DEEPINFRA_SECRET_KEY"`
	CartesiaKey  string `env:"CARTESIA_API_KEY"`

	MaxWorkers int `env:"SPEECH_MAX_WORKERS,default=10"`
}

type DeepgramConfig struct {
	APIKey string `env:"DEEPGRAM_API_KEY"`
}

// IdentityConfig decides what happens when a caller omits userID/sessionID.
type IdentityConfig struct {
	RequireIDs       bool   `env:"REQUIRE_IDS,default=false"`
	DefaultUserID    string `env:"DEFAULT_USER_ID,default=default_user"`
	DefaultSessionID string `env:"DEFAULT_SESSION_ID,default=anon"`
}

// Load reads configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration from an arbitrary lookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &cfg, l); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	cfg.Speech.Provider = strings.ToLower(strings.TrimSpace(cfg.Speech.Provider))
	cfg.ModelProvider = strings.ToLower(strings.TrimSpace(cfg.ModelProvider))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks that required fields are set for the selected backends.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be > 0")
	}
	if c.HistoryLimit <= 0 || c.HistoryLimit > MaxHistoryLimit {
		return fmt.Errorf("HISTORY_LIMIT must be between 1 and %d", MaxHistoryLimit)
	}

	switch c.Storage.Backend {
	case StorageMemory:
	case StorageFirestore:
		if c.Storage.GCPProject == "" {
			return fmt.Errorf("GCP_PROJECT is required for the firestore backend")
		}
	case StoragePostgres:
		if c.Storage.Postgres.Name == "" {
			return fmt.Errorf("POSTGRES_DB_NAME is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}

	switch c.ModelProvider {
	case ModelGemini, ModelGroq:
	default:
		return fmt.Errorf("unknown MODEL_PROVIDER %q", c.ModelProvider)
	}

	switch c.Speech.Provider {
	case SpeechPolly, SpeechOpenAI, SpeechDeepInfra, SpeechCartesia:
	default:
		return fmt.Errorf("unknown SPEECH_PROVIDER %q", c.Speech.Provider)
	}
	if c.Speech.MaxWorkers <= 0 {
		return fmt.Errorf("SPEECH_MAX_WORKERS must be > 0")
	}

	if !c.Identity.RequireIDs && (c.Identity.DefaultUserID == "" || c.Identity.DefaultSessionID == "") {
		return fmt.Errorf("DEFAULT_USER_ID and DEFAULT_SESSION_ID are required unless REQUIRE_IDS is set")
	}
	return nil
}
