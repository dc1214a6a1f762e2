package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the relay.
type Config struct {
	App        AppConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Slack      SlackConfig
	GitHub     GitHubConfig
	Jira       JiraConfig
	Classifier ClassifierConfig
	Routing    RoutingConfig
	Escalation EscalationConfig
	Dedup      DedupConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	FlowTimeoutSeconds    int
}

// PostgresConfig holds DB connection values for the audit trail.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// SlackConfig holds chat platform credentials.
type SlackConfig struct {
	BotToken      string
	SigningSecret string
	BaseURL       string
}

// GitHubConfig holds the source-control webhook secret.
type GitHubConfig struct {
	WebhookSecret string
}

// JiraConfig holds issue tracker credentials.
type JiraConfig struct {
	BaseURL       string
	Email         string
	APIToken      string
	WebhookSecret string
}

// ClassifierConfig configures the text classification API.
type ClassifierConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	MaxTokens      int
	TimeoutSeconds int
}

// RoutingConfig holds the fixed project and channel identifiers used by the router.
type RoutingConfig struct {
	DefaultProject string
	SupportChannel string
	UpdatesChannel string
	OpsChannel     string
}

// EscalationConfig controls the delayed blocker re-check.
type EscalationConfig struct {
	DelayMinutes        int
	CheckTimeoutSeconds int
}

// DedupConfig controls replay protection for inbound deliveries.
type DedupConfig struct {
	TTLSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "relay-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			FlowTimeoutSeconds:    getEnvAsInt("FLOW_TIMEOUT_SECONDS", 120),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 5)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 1)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Slack: SlackConfig{
			BotToken:      os.Getenv("SLACK_BOT_TOKEN"),
			SigningSecret: os.Getenv("SLACK_SIGNING_SECRET"),
			BaseURL:       getEnv("SLACK_API_BASE_URL", "https://slack.com/api"),
		},
		GitHub: GitHubConfig{
			WebhookSecret: os.Getenv("GITHUB_WEBHOOK_SECRET"),
		},
		Jira: JiraConfig{
			BaseURL:       strings.TrimRight(os.Getenv("JIRA_BASE_URL"), "/"),
			Email:         os.Getenv("JIRA_EMAIL"),
			APIToken:      os.Getenv("JIRA_API_TOKEN"),
			WebhookSecret: os.Getenv("JIRA_WEBHOOK_SECRET"),
		},
		Classifier: ClassifierConfig{
			APIKey:         os.Getenv("ANTHROPIC_API_KEY"),
			BaseURL:        getEnv("CLASSIFIER_BASE_URL", "https://api.anthropic.com"),
			Model:          getEnv("CLASSIFIER_MODEL", "claude-3-5-haiku-latest"),
			MaxTokens:      getEnvAsInt("CLASSIFIER_MAX_TOKENS", 1024),
			TimeoutSeconds: getEnvAsInt("CLASSIFIER_TIMEOUT_SECONDS", 30),
		},
		Routing: RoutingConfig{
			DefaultProject: getEnv("RELAY_DEFAULT_PROJECT", "KAN"),
			SupportChannel: getEnv("RELAY_SUPPORT_CHANNEL", "#support"),
			UpdatesChannel: getEnv("RELAY_UPDATES_CHANNEL", "#project-updates"),
			OpsChannel:     getEnv("RELAY_OPS_CHANNEL", "#ops-alerts"),
		},
		Escalation: EscalationConfig{
			DelayMinutes:        getEnvAsInt("ESCALATION_DELAY_MINUTES", 240),
			CheckTimeoutSeconds: getEnvAsInt("ESCALATION_CHECK_TIMEOUT_SECONDS", 15),
		},
		Dedup: DedupConfig{
			TTLSeconds: getEnvAsInt("DEDUP_TTL_SECONDS", 600),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants the router depends on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Routing.DefaultProject) == "" {
		return errors.New("RELAY_DEFAULT_PROJECT must not be empty")
	}
	if c.Escalation.DelayMinutes <= 0 {
		return fmt.Errorf("ESCALATION_DELAY_MINUTES must be positive, got %d", c.Escalation.DelayMinutes)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// FlowTimeout bounds one asynchronous router continuation.
func (a AppConfig) FlowTimeout() time.Duration {
	if a.FlowTimeoutSeconds <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(a.FlowTimeoutSeconds) * time.Second
}

// Timeout returns the per-call deadline for classification requests.
func (c ClassifierConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Delay returns how long a blocker escalation waits before re-checking.
func (e EscalationConfig) Delay() time.Duration {
	return time.Duration(e.DelayMinutes) * time.Minute
}

// CheckTimeout bounds the status re-read performed when a job fires.
func (e EscalationConfig) CheckTimeout() time.Duration {
	if e.CheckTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(e.CheckTimeoutSeconds) * time.Second
}

// TTL returns how long a delivery id is remembered.
func (d DedupConfig) TTL() time.Duration {
	if d.TTLSeconds <= 0 {
		return 0
	}
	return time.Duration(d.TTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
