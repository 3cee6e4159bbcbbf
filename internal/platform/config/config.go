package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var ErrConfiguration = errors.New("configuration error")

type Config struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Postgres  PostgresConfig  `mapstructure:",squash"`
	Auth      AuthConfig      `mapstructure:",squash"`
	LLM       LLMConfig       `mapstructure:",squash"`
	Chroma    ChromaConfig    `mapstructure:",squash"`
	Community CommunityConfig `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	Worker    WorkerConfig    `mapstructure:",squash"`
	Metrics   MetricsConfig   `mapstructure:",squash"`
	Tracing   TracingConfig   `mapstructure:",squash"`
}

type ServerConfig struct {
	Port        string `mapstructure:"port" validate:"required,numeric"`
	LogMode     string `mapstructure:"log_mode" validate:"oneof=production development"`
	CORSOrigins string `mapstructure:"cors_origins"`
	Version     string `mapstructure:"app_version"`

	LogLevel     string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogRedaction bool   `mapstructure:"log_redaction_enabled"`
	LogHashSalt  string `mapstructure:"log_hash_salt"`
}

type PostgresConfig struct {
	DatabaseURL string `mapstructure:"database_url"`
	Host        string `mapstructure:"postgres_host"`
	Port        string `mapstructure:"postgres_port"`
	User        string `mapstructure:"postgres_user"`
	Password    string `mapstructure:"postgres_password"`
	Name        string `mapstructure:"postgres_name"`
	SSLMode     string `mapstructure:"postgres_sslmode" validate:"oneof=disable require verify-ca verify-full prefer allow"`
}

type AuthConfig struct {
	JWTSecret   string `mapstructure:"auth_jwt_secret" validate:"required,min=16"`
	JWTAudience string `mapstructure:"auth_jwt_audience"`
}

type LLMConfig struct {
	Provider         string        `mapstructure:"llm_provider" validate:"oneof=ollama openai"`
	OllamaURL        string        `mapstructure:"ollama_url" validate:"required,url"`
	OllamaModel      string        `mapstructure:"ollama_model" validate:"required"`
	OllamaEmbedModel string        `mapstructure:"ollama_embed_model" validate:"required"`
	OpenAIAPIKey     string        `mapstructure:"openai_api_key" validate:"required_if=Provider openai"`
	OpenAIModel      string        `mapstructure:"openai_model"`
	OpenAIBaseURL    string        `mapstructure:"openai_base_url" validate:"omitempty,url"`
	Temperature      float32       `mapstructure:"llm_temperature" validate:"min=0,max=2"`
	TopP             float32       `mapstructure:"llm_top_p" validate:"min=0,max=1"`
	MaxTokens        int           `mapstructure:"llm_max_tokens" validate:"min=1,max=32768"`
	Timeout          time.Duration `mapstructure:"llm_timeout" validate:"min=1s,max=10m"`
}

type ChromaConfig struct {
	URL        string `mapstructure:"chroma_url" validate:"required,url"`
	Collection string `mapstructure:"chroma_collection" validate:"required"`
	Tenant     string `mapstructure:"chroma_tenant"`
	Database   string `mapstructure:"chroma_database"`
	RetrievalK int    `mapstructure:"retrieval_k" validate:"min=1,max=50"`
}

type CommunityConfig struct {
	DeclinePolicy   string        `mapstructure:"community_decline_policy" validate:"oneof=block cooldown"`
	DeclineCooldown time.Duration `mapstructure:"community_decline_cooldown" validate:"min=0"`
	MatchMinScore   float64       `mapstructure:"match_min_score" validate:"min=0,max=100"`
}

type RedisConfig struct {
	Addr    string `mapstructure:"redis_addr"`
	Channel string `mapstructure:"redis_channel"`
}

type WorkerConfig struct {
	Concurrency int  `mapstructure:"worker_concurrency" validate:"min=1,max=64"`
	Enabled     bool `mapstructure:"worker_enabled"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"metrics_enabled"`
	// Addr serves /metrics on a separate listener. Empty mounts it on the API router.
	Addr        string        `mapstructure:"metrics_addr"`
	ScrapeEvery time.Duration `mapstructure:"metrics_scrape_interval" validate:"min=0"`
}

// TracingConfig uses the standard OTEL_* variable names.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"otel_enabled"`
	Exporter    string  `mapstructure:"otel_traces_exporter" validate:"oneof=otlp stdout none"`
	Endpoint    string  `mapstructure:"otel_exporter_otlp_endpoint"`
	Insecure    bool    `mapstructure:"otel_exporter_otlp_insecure"`
	Headers     string  `mapstructure:"otel_exporter_otlp_headers"`
	SampleRatio float64 `mapstructure:"otel_sampler_ratio" validate:"min=0,max=1"`
}

var defaults = map[string]any{
	"port":                        "8080",
	"log_mode":                    "development",
	"cors_origins":                "http://localhost:3000,http://localhost:5173",
	"log_level":                   "",
	"log_redaction_enabled":       true,
	"log_hash_salt":               "",
	"app_version":                 "dev",
	"database_url":                "",
	"postgres_host":               "localhost",
	"postgres_port":               "5432",
	"postgres_user":               "postgres",
	"postgres_password":           "",
	"postgres_name":               "religiousai",
	"postgres_sslmode":            "disable",
	"auth_jwt_secret":             "",
	"auth_jwt_audience":           "",
	"llm_provider":                "ollama",
	"ollama_url":                  "http://localhost:11434",
	"ollama_model":                "llama3",
	"ollama_embed_model":          "nomic-embed-text",
	"openai_api_key":              "",
	"openai_model":                "gpt-4o-mini",
	"openai_base_url":             "",
	"llm_temperature":             0.7,
	"llm_top_p":                   0.9,
	"llm_max_tokens":              2048,
	"llm_timeout":                 "120s",
	"chroma_url":                  "http://localhost:8000",
	"chroma_collection":           "scriptures",
	"chroma_tenant":               "",
	"chroma_database":             "",
	"retrieval_k":                 6,
	"community_decline_policy":    "cooldown",
	"community_decline_cooldown":  "168h",
	"match_min_score":             0,
	"redis_addr":                  "",
	"redis_channel":               "sse",
	"worker_concurrency":          4,
	"worker_enabled":              true,
	"metrics_enabled":             false,
	"metrics_addr":                "",
	"metrics_scrape_interval":     "15s",
	"otel_enabled":                false,
	"otel_traces_exporter":        "otlp",
	"otel_exporter_otlp_endpoint": "",
	"otel_exporter_otlp_insecure": false,
	"otel_exporter_otlp_headers":  "",
	"otel_sampler_ratio":          0.1,
}

// Load reads defaults, an optional YAML file named by CONFIG_FILE, then the
// environment (plain upper-case keys, e.g. OLLAMA_URL).
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("config_file", "CONFIG_FILE"); err != nil {
		return nil, fmt.Errorf("%w: bind CONFIG_FILE: %v", ErrConfiguration, err)
	}
	if path := strings.TrimSpace(v.GetString("config_file")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrConfiguration, path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			parts := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(parts, "; "))
		}
		return err
	}
	if c.Postgres.DatabaseURL == "" && (c.Postgres.Host == "" || c.Postgres.Name == "") {
		return errors.New("either DATABASE_URL or POSTGRES_HOST and POSTGRES_NAME must be set")
	}
	return nil
}

// DSN returns DATABASE_URL when set, otherwise a key/value DSN from POSTGRES_*.
func (p PostgresConfig) DSN() string {
	if p.DatabaseURL != "" {
		return p.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		p.Host, p.User, p.Password, p.Name, p.Port, p.SSLMode,
	)
}

// Redacted is the DSN with the password masked, for logs.
func (p PostgresConfig) Redacted() string {
	if p.DatabaseURL != "" {
		u, err := url.Parse(p.DatabaseURL)
		if err != nil {
			return "<unparseable DATABASE_URL>"
		}
		return u.Redacted()
	}
	return fmt.Sprintf("host=%s user=%s dbname=%s port=%s", p.Host, p.User, p.Name, p.Port)
}

func (s ServerConfig) AllowedOrigins() []string {
	out := []string{}
	for _, o := range strings.Split(s.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (s ServerConfig) IsProduction() bool {
	return s.LogMode == "production"
}
