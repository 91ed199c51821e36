package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Configuration constants
const (
	// DefaultConfigPath is the default path to the config file
	DefaultConfigPath = "~/.rfcbridge/config.yaml"

	// EnvPrefix is the prefix for environment variables. Nested keys are
	// separated by a double underscore: RFCBRIDGE_CACHE__TTL=1h.
	EnvPrefix = "RFCBRIDGE_"
)

// Config holds all configuration for rfcbridge
type Config struct {
	Cache    CacheConfig    `koanf:"cache"`
	Metadata MetadataConfig `koanf:"metadata"`
	Table    TableConfig    `koanf:"table"`
	Backend  BackendConfig  `koanf:"backend"`
	Log      LogConfig      `koanf:"log"`
}

// CacheConfig holds metadata cache configuration
type CacheConfig struct {
	// Directory holding the metadata database
	Dir string `koanf:"dir" validate:"required"`

	// Time-to-live of cached metadata
	TTL time.Duration `koanf:"ttl" validate:"gt=0"`
}

// MetadataConfig holds resolver configuration
type MetadataConfig struct {
	// ISO 639-1 language used when a request names none
	DefaultLanguage string `koanf:"default_language" validate:"required,len=2,alpha"`
}

// TableConfig holds table reader configuration
type TableConfig struct {
	// Row-transfer limit of RFC_READ_TABLE
	BufferSize int `koanf:"buffer_size" validate:"gt=0"`

	// Space kept free during automatic field selection
	SafetyMargin int `koanf:"safety_margin" validate:"gt=0,ltfield=BufferSize"`

	DefaultMaxRows int    `koanf:"default_max_rows" validate:"gt=0"`
	Delimiter      string `koanf:"delimiter" validate:"required,len=1"`
}

// BackendConfig holds backend access configuration
type BackendConfig struct {
	// Fixture file answering calls instead of a live system
	Fixture string `koanf:"fixture"`

	// Upper bound for a single backend call; zero disables it
	CallTimeout time.Duration `koanf:"call_timeout" validate:"gte=0"`

	// Consecutive transport failures before calls are suspended; zero disables it
	FailureThreshold int           `koanf:"failure_threshold" validate:"gte=0"`
	ResetTimeout     time.Duration `koanf:"reset_timeout" validate:"gte=0"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level       string `koanf:"level" validate:"omitempty,oneof=debug info warn warning error"`
	File        string `koanf:"file"`
	Development bool   `koanf:"development"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return &Config{
		Cache: CacheConfig{
			Dir: filepath.Join(homeDir, ".rfcbridge", "cache"),
			TTL: 24 * time.Hour,
		},
		Metadata: MetadataConfig{
			DefaultLanguage: "EN",
		},
		Table: TableConfig{
			BufferSize:     512,
			SafetyMargin:   50,
			DefaultMaxRows: 100,
			Delimiter:      "|",
		},
		Backend: BackendConfig{
			CallTimeout:      60 * time.Second,
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// DBPath is the badger directory inside the cache directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.Cache.Dir, "metadata.db")
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// LoadConfig loads configuration from the specified path and environment variables
func LoadConfig(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Set default values
	defaultConfig := DefaultConfig()
	err := k.Load(newStructProvider(defaultConfig), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	expandedPath := ExpandHome(configPath)

	// Try to load from config file (if it exists)
	if _, err := os.Stat(expandedPath); err == nil {
		if err := k.Load(file.Provider(expandedPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Load from environment variables
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Unmarshal into Config struct
	var config Config
	if err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &config,
			WeaklyTypedInput: true,
			ErrorUnused:      true,
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.Cache.Dir = ExpandHome(config.Cache.Dir)
	config.Backend.Fixture = ExpandHome(config.Backend.Fixture)
	config.Log.File = ExpandHome(config.Log.File)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, path[2:])
}

// structProvider is a provider that loads configuration from a struct
type structProvider struct {
	cfg interface{}
}

// newStructProvider creates a new struct provider
func newStructProvider(cfg interface{}) *structProvider {
	return &structProvider{cfg: cfg}
}

// Read reads the configuration from the struct
func (s *structProvider) Read() (map[string]interface{}, error) {
	var out map[string]interface{}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &out,
		TagName: "koanf",
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(s.cfg); err != nil {
		return nil, err
	}

	return out, nil
}

// ReadBytes is required by the Provider interface but not used for struct providers
func (s *structProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("ReadBytes not supported for struct provider")
}
