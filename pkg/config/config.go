package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/ekaya-inc/ekaya-nlsql/pkg/apperrors"
)

// DefaultConfigPath is the YAML file read by Load when present.
const DefaultConfigPath = "config.yaml"

// Config holds all configuration for ekaya-nlsql.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API keys, session tokens, passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8000"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:""`
	Version  string `yaml:"-"` // Set at load time, not from config

	// AllowedOriginsStr is a comma-separated list of origins allowed by CORS.
	AllowedOriginsStr string   `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:8080"`
	AllowedOrigins    []string `yaml:"-"`

	// Generative model used to translate questions into SQL
	LLM LLMConfig `yaml:"llm"`

	// Remote analytics engine (Metabase)
	Metabase MetabaseConfig `yaml:"metabase"`

	// Schema context extraction and artifact location
	Schema SchemaConfig `yaml:"schema"`

	// Source database, used only by export-schema
	SourceDB SourceDBConfig `yaml:"source_db"`
}

// LLMConfig holds the generative model settings.
type LLMConfig struct {
	// Provider selects the client implementation: "openai" (any OpenAI-compatible
	// endpoint, including Gemini's) or "anthropic".
	Provider    string  `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	BaseURL     string  `yaml:"base_url" env:"LLM_BASE_URL" env-default:"https://generativelanguage.googleapis.com/v1beta/openai/"`
	Model       string  `yaml:"model" env:"LLM_MODEL" env-default:"gemini-1.5-flash"`
	Temperature float64 `yaml:"temperature" env:"LLM_TEMPERATURE" env-default:"0"`
	MaxTokens   int     `yaml:"max_tokens" env:"LLM_MAX_TOKENS" env-default:"2048"`
	APIKey      string  `yaml:"-" env:"LLM_API_KEY,GEMINI_API_KEY"` // Secret - not in YAML
}

// MetabaseConfig holds the remote analytics engine settings.
type MetabaseConfig struct {
	URL        string        `yaml:"url" env:"METABASE_URL"`
	Session    string        `yaml:"-" env:"METABASE_SESSION"` // Secret - not in YAML
	DatabaseID int64         `yaml:"database_id" env:"METABASE_DB_ID"`
	Timeout    time.Duration `yaml:"timeout" env:"METABASE_TIMEOUT" env-default:"60s"`
}

// SchemaConfig holds the schema namespace and the artifact shared between
// export-schema and the generation endpoint.
type SchemaConfig struct {
	Name         string `yaml:"name" env:"SCHEMA_NAME" env-default:"emsp"`
	ArtifactPath string `yaml:"artifact_path" env:"SCHEMA_ARTIFACT_PATH" env-default:"schema_context.txt"`
	// QualifyTables rewrites bare table references in generated SQL to
	// <Name>.<table> when the table is listed in the artifact. Off by default
	// so generated SQL is forwarded exactly as the model wrote it.
	QualifyTables bool `yaml:"qualify_tables" env:"SCHEMA_QUALIFY_TABLES" env-default:"false"`
}

// SourceDBConfig holds the connection parameters of the database whose catalog
// is exported. There are intentionally no defaults for credentials.
type SourceDBConfig struct {
	Host     string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	Name     string `yaml:"name" env:"DB_NAME"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"-" env:"DB_PASS"` // Secret - not in YAML
	SSLMode  string `yaml:"ssl_mode" env:"DB_SSLMODE" env-default:"disable"`
}

// Load reads configuration from the YAML file at path (if it exists) with
// environment variable overrides. When the file does not exist only the
// environment is consulted. The version parameter is injected at build time.
func Load(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, fs.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	cfg.AllowedOrigins = parseList(cfg.AllowedOriginsStr)
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))

	return cfg, nil
}

// Validate checks the settings required to serve requests.
// Every missing key is reported; the returned error wraps apperrors.ErrMissingConfig.
func (c *Config) Validate() error {
	var missing []string

	if c.LLM.APIKey == "" {
		missing = append(missing, "LLM_API_KEY (or GEMINI_API_KEY)")
	}
	if c.LLM.Model == "" {
		missing = append(missing, "LLM_MODEL")
	}
	if c.Metabase.URL == "" {
		missing = append(missing, "METABASE_URL")
	}
	if c.Metabase.Session == "" {
		missing = append(missing, "METABASE_SESSION")
	}
	if c.Metabase.DatabaseID == 0 {
		missing = append(missing, "METABASE_DB_ID")
	}
	if c.Schema.Name == "" {
		missing = append(missing, "SCHEMA_NAME")
	}
	if c.Schema.ArtifactPath == "" {
		missing = append(missing, "SCHEMA_ARTIFACT_PATH")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrMissingConfig, strings.Join(missing, ", "))
	}

	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("invalid LLM_PROVIDER %q: must be openai or anthropic", c.LLM.Provider)
	}

	if _, err := url.ParseRequestURI(c.Metabase.URL); err != nil {
		return fmt.Errorf("invalid METABASE_URL: %w", err)
	}

	return nil
}

// ValidateSourceDB checks the settings required by export-schema.
func (c *Config) ValidateSourceDB() error {
	var missing []string

	if c.SourceDB.Host == "" {
		missing = append(missing, "DB_HOST")
	}
	if c.SourceDB.Name == "" {
		missing = append(missing, "DB_NAME")
	}
	if c.SourceDB.User == "" {
		missing = append(missing, "DB_USER")
	}
	if c.SourceDB.Password == "" {
		missing = append(missing, "DB_PASS")
	}
	if c.Schema.Name == "" {
		missing = append(missing, "SCHEMA_NAME")
	}
	if c.Schema.ArtifactPath == "" {
		missing = append(missing, "SCHEMA_ARTIFACT_PATH")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrMissingConfig, strings.Join(missing, ", "))
	}
	return nil
}

// ListenAddr returns the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return c.BindAddr + ":" + c.Port
}

// ConnectionString returns a PostgreSQL URL with every user-provided field escaped.
// Special characters in passwords (@, /, #, ?) would otherwise break URL parsing.
func (c *SourceDBConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", ResolveHostForDocker(c.Host), c.Port),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": []string{sslMode}}.Encode(),
	}
	return u.String()
}

// parseList splits a comma-separated value, dropping empty entries.
func parseList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
