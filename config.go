package teamquery

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Config represents the team-query project configuration. Backends consume
// it read-only; only the dialect and per-generator settings influence the
// generated code.
type Config struct {
	Dialect    string           `yaml:"dialect"`
	QueriesDir string           `yaml:"queries_dir"`
	Generation GenerationConfig `yaml:"generation"`
}

// GenerationConfig represents code generation settings
type GenerationConfig struct {
	Generators map[string]GeneratorConfig `yaml:"generators"`
}

// GeneratorConfig represents a single generator configuration
type GeneratorConfig struct {
	Output   string         `yaml:"output"`
	Disabled *bool          `yaml:"disabled"` // nil or false means enabled
	Settings map[string]any `yaml:"settings,omitempty"`
}

// IsEnabled returns true if the generator is not explicitly disabled.
// Generators are enabled by default unless disabled: true is set.
func (g *GeneratorConfig) IsEnabled() bool {
	return g.Disabled == nil || !*g.Disabled
}

// DialectOrDefault returns the configured dialect, falling back to postgres.
func (c *Config) DialectOrDefault() Dialect {
	if c.Dialect == "" {
		return DialectPostgres
	}

	return Dialect(c.Dialect)
}

// LoadConfig loads configuration from the specified file. A missing file is
// not an error: the default configuration is returned so the CLI works in
// an unconfigured project.
func LoadConfig(configPath string) (*Config, error) {
	// Load .env files first so ${VAR} expansion sees them
	err := loadEnvFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		config := defaultConfig()
		expandConfigEnvVars(config)

		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML with strict mode to detect unknown fields
	var config Config

	err = yaml.UnmarshalWithOptions(data, &config, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	applyDefaults(&config)
	expandConfigEnvVars(&config)

	return &config, nil
}

func loadEnvFiles() error {
	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err == nil {
			if err := godotenv.Load(name); err != nil {
				return fmt.Errorf("failed to load %s: %w", name, err)
			}
		}
	}

	return nil
}

func defaultConfig() *Config {
	return &Config{
		Dialect:    string(DialectPostgres),
		QueriesDir: "./queries",
		Generation: GenerationConfig{
			Generators: map[string]GeneratorConfig{
				"python": {Output: "./generated/python"},
			},
		},
	}
}

// validateConfig validates the configuration for common errors and inconsistencies
func validateConfig(config *Config) error {
	if config.Dialect != "" && !Dialect(config.Dialect).Valid() {
		return fmt.Errorf("%w: %w: '%s' must be one of postgres, mysql, sqlite", ErrConfigValidation, ErrUnsupportedDialect, config.Dialect)
	}

	validGenerators := map[string]bool{
		"python":     true,
		"javascript": true,
	}

	for name, generator := range config.Generation.Generators {
		if !validGenerators[name] {
			return fmt.Errorf("%w: unknown generator type '%s': must be one of python, javascript", ErrConfigValidation, name)
		}

		if generator.IsEnabled() && generator.Output == "" {
			return fmt.Errorf("%w: generator '%s': output path is required when enabled", ErrConfigValidation, name)
		}
	}

	return nil
}

// applyDefaults fills in defaults for values the config file omitted
func applyDefaults(config *Config) {
	if config.Dialect == "" {
		config.Dialect = string(DialectPostgres)
	}

	if config.QueriesDir == "" {
		config.QueriesDir = "./queries"
	}
}

// expandConfigEnvVars expands ${VAR} references in path-like settings
func expandConfigEnvVars(config *Config) {
	config.QueriesDir = os.ExpandEnv(config.QueriesDir)

	for name, generator := range config.Generation.Generators {
		generator.Output = os.ExpandEnv(generator.Output)
		config.Generation.Generators[name] = generator
	}
}
