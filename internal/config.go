package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/specgraph/internal/health"
	"github.com/starford/specgraph/internal/impact"
	"github.com/starford/specgraph/internal/risk"
	"github.com/starford/specgraph/internal/storage"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app" toml:"app"`
	Specs  SpecsConfig       `yaml:"specs" toml:"specs"`
	Risk   risk.Policy       `yaml:"risk" toml:"risk"`
	Impact ImpactConfig      `yaml:"impact" toml:"impact"`
	Health HealthConfig      `yaml:"health" toml:"health"`
	Index  IndexConfig       `yaml:"index" toml:"index"`
	Auth   AuthConfig        `yaml:"auth" toml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Specs.Validate(); err != nil {
		return fmt.Errorf("specs: %w", err)
	}
	if err := c.Risk.Validate(); err != nil {
		return fmt.Errorf("risk: %w", err)
	}
	if err := c.Impact.Validate(); err != nil {
		return fmt.Errorf("impact: %w", err)
	}
	if err := c.Health.Validate(); err != nil {
		return fmt.Errorf("health: %w", err)
	}
	if err := c.Index.Validate(); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level" toml:"log_level"`
	HTTP     HTTPConfig `yaml:"http" toml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" toml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SpecsConfig locates the spec tree.
type SpecsConfig struct {
	Root     string `yaml:"root" toml:"root"`
	Filename string `yaml:"filename" toml:"filename"`
	Workers  int    `yaml:"workers" toml:"workers"`
}

// Validate validates the specs configuration.
func (c *SpecsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.Filename, validation.Required),
		validation.Field(&c.Workers, validation.Required, validation.Min(1), validation.Max(64)),
	)
}

// ImpactConfig bounds impact traversal.
type ImpactConfig struct {
	MaxDepth int `yaml:"max_depth" toml:"max_depth"`
}

// Validate validates the impact configuration.
func (c *ImpactConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxDepth, validation.Required, validation.Min(1), validation.Max(20)),
	)
}

// HealthConfig tunes the project health report.
type HealthConfig struct {
	TopN int `yaml:"top_n" toml:"top_n"`
}

// Validate validates the health configuration.
func (c *HealthConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TopN, validation.Required, validation.Min(1), validation.Max(100)),
	)
}

// IndexConfig holds the SQLite search index location.
type IndexConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode" toml:"mode"`
	Token string `yaml:"token" toml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Specs: SpecsConfig{
			Root:     "./specs",
			Filename: storage.DefaultFilename,
			Workers:  storage.DefaultWorkers,
		},
		Risk: risk.DefaultPolicy(),
		Impact: ImpactConfig{
			MaxDepth: impact.DefaultMaxDepth,
		},
		Health: HealthConfig{
			TopN: health.DefaultTopN,
		},
		Index: IndexConfig{
			Path: "./specgraph.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
