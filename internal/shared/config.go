package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Spotify SpotifyConfig `toml:"spotify"`
	Retry   RetryConfig   `toml:"retry"`
	Limits  LimitsConfig  `toml:"limits"`
	Server  ServerConfig  `toml:"server"`
	Log     LogConfig     `toml:"log"`
}

// SpotifyConfig points the client at the Web API. The access token is supplied by whatever performed the OAuth flow.
type SpotifyConfig struct {
	APIURL      string `toml:"api_url"`
	AccessToken string `toml:"access_token"`
}

// RetryConfig controls the HTTP retry layer.
type RetryConfig struct {
	MaxRetries        int      `toml:"max_retries"`
	InitialDelay      Duration `toml:"initial_delay"`
	MaxRateLimitWaits int      `toml:"max_rate_limit_waits"`
}

// LimitsConfig holds batch sizes and pacing delays used by the transformation engine.
type LimitsConfig struct {
	QueueDelay            Duration `toml:"queue_delay"`
	SearchLimit           int      `toml:"search_limit"`
	CleanBatchSize        int      `toml:"clean_batch_size"`
	CleanBatchPause       Duration `toml:"clean_batch_pause"`
	ArtistBatchSize       int      `toml:"artist_batch_size"`
	ArtistConcurrency     int      `toml:"artist_concurrency"`
	WriteBatchSize        int      `toml:"write_batch_size"`
	WritePacing           Duration `toml:"write_pacing"`
	MinBucketSize         int      `toml:"min_bucket_size"`
	RollbackPartialWrites bool     `toml:"rollback_partial_writes"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Duration is a [time.Duration] that decodes from TOML strings such as "300ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the defaults from the embedded example config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
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

// LoadEnv reads a dotenv file (if present) into the process environment and applies overrides to c.
//
// A missing file is not an error.
func (c *Config) LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}

	if len(present) > 0 {
		if err := godotenv.Load(present...); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	}

	c.ApplyEnv()
	return nil
}

// ApplyEnv overrides config values with SPOTIFY_ACCESS_TOKEN, SPOTIFY_API_URL and PLAYLISTIFY_LOG_LEVEL.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SPOTIFY_ACCESS_TOKEN"); v != "" {
		c.Spotify.AccessToken = v
	}
	if v := os.Getenv("SPOTIFY_API_URL"); v != "" {
		c.Spotify.APIURL = v
	}
	if v := os.Getenv("PLAYLISTIFY_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	l := c.Limits
	switch {
	case c.Spotify.APIURL == "":
		return fmt.Errorf("%w: spotify.api_url is required", ErrInvalidConfig)
	case c.Retry.MaxRetries <= 0:
		return fmt.Errorf("%w: retry.max_retries must be positive", ErrInvalidConfig)
	case c.Retry.InitialDelay.Duration < 0, l.QueueDelay.Duration < 0, l.CleanBatchPause.Duration < 0, l.WritePacing.Duration < 0:
		return fmt.Errorf("%w: delays must not be negative", ErrInvalidConfig)
	case l.SearchLimit <= 0 || l.SearchLimit > 50:
		return fmt.Errorf("%w: limits.search_limit must be between 1 and 50", ErrInvalidConfig)
	case l.CleanBatchSize <= 0, l.ArtistConcurrency <= 0, l.MinBucketSize <= 0:
		return fmt.Errorf("%w: batch sizes and concurrency must be positive", ErrInvalidConfig)
	case l.ArtistBatchSize <= 0 || l.ArtistBatchSize > 50:
		return fmt.Errorf("%w: limits.artist_batch_size must be between 1 and 50", ErrInvalidConfig)
	case l.WriteBatchSize <= 0 || l.WriteBatchSize > 100:
		return fmt.Errorf("%w: limits.write_batch_size must be between 1 and 100", ErrInvalidConfig)
	}
	return nil
}
