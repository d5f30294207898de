package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Storage  StorageConfig  `toml:"storage"`
	Output   OutputConfig   `toml:"output"`
	Logging  LoggingConfig  `toml:"logging"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// StorageConfig controls when queued writes are committed.
type StorageConfig struct {
	Autosave         bool     `toml:"autosave"`
	FlushRetries     int      `toml:"flush_retries"`
	RetryRate        float64  `toml:"retry_rate"`
	AutosaveInterval Duration `toml:"autosave_interval"`
}

// OutputConfig contains the default sink for generated rounds.
type OutputConfig struct {
	File string `toml:"file"`
}

// LoggingConfig contains log settings.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// Duration wraps [time.Duration] so it can be written as "30s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q", ErrInvalidConfig, string(text))
	}
	d.Duration = v
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Environment variables that override file values.
const (
	EnvDatabasePath = "ONEPLUSONE_DATABASE_PATH"
	EnvLogLevel     = "ONEPLUSONE_LOG_LEVEL"
	EnvOutputFile   = "ONEPLUSONE_OUTPUT_FILE"
	EnvAutosave     = "ONEPLUSONE_AUTOSAVE"
)

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks value ranges that TOML decoding cannot express.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("%w: database.path is required", ErrInvalidConfig)
	}
	if c.Storage.FlushRetries < 0 {
		return fmt.Errorf("%w: storage.flush_retries must not be negative", ErrInvalidConfig)
	}
	if c.Storage.RetryRate < 0 {
		return fmt.Errorf("%w: storage.retry_rate must not be negative", ErrInvalidConfig)
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// ApplyEnv overlays environment variables onto c.
//
// Values from envFile (a dotenv file, skipped when missing) only apply when the variable
// is not already set in the process environment.
func ApplyEnv(c *Config, envFile string) error {
	if envFile != "" {
		if envMap, err := godotenv.Read(envFile); err == nil {
			for k, v := range envMap {
				if _, exists := os.LookupEnv(k); !exists {
					_ = os.Setenv(k, v)
				}
			}
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read env file: %w", err)
		}
	}

	if v, ok := os.LookupEnv(EnvDatabasePath); ok && v != "" {
		c.Database.Path = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := os.LookupEnv(EnvOutputFile); ok {
		c.Output.File = v
	}
	if v, ok := os.LookupEnv(EnvAutosave); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvAutosave, v)
		}
		c.Storage.Autosave = b
	}

	return c.Validate()
}
