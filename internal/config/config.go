package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Keys double as environment variable names (viper upper-cases them) and as
// config file keys.
const (
	KeyAPIPort            = "api_port"
	KeyBackendAPIKey      = "backend_api_key"
	KeyCorsAllowedOrigins = "cors_allowed_origins"

	KeyResembleAPIKey        = "resemble_api_key"
	KeyResembleAPIURL        = "resemble_api_url"
	KeyResembleSynthURL      = "resemble_synth_url"
	KeyResembleTimeout       = "resemble_timeout"
	KeyResembleMaxAudioBytes = "resemble_max_audio_bytes"

	KeyDatabaseURL   = "database_url"
	KeyRedisURL      = "redis_url"
	KeyCallLogMaxLen = "call_log_max_len"

	KeyLogLevel  = "log_level"
	KeyLogFormat = "log_format"
)

type Config struct {
	// Server
	APIPort            string
	BackendAPIKey      string // API key for authenticating /v1 and /mcp requests (empty = no auth, dev mode)
	CorsAllowedOrigins string // Comma-separated allowed origins (empty = *, dev mode)

	// Resemble AI (the only required credential lives here)
	Resemble ResembleConfig

	// Call log sinks (both optional)
	DatabaseURL   string
	RedisURL      string
	CallLogMaxLen int64 // Max entries kept in the Redis call stream

	// Logging
	LogLevel  string
	LogFormat string // "json" or "text"
}

// ResembleConfig holds settings for the Resemble AI REST client.
type ResembleConfig struct {
	APIKey        string
	APIURL        string        // Voices and projects API
	SynthURL      string        // Streaming synthesis cluster
	Timeout       time.Duration // Per-request HTTP timeout
	MaxAudioBytes int64         // Upper bound on a single synthesized clip
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIPort, "8080")
	v.SetDefault(KeyBackendAPIKey, "")
	v.SetDefault(KeyCorsAllowedOrigins, "")
	v.SetDefault(KeyResembleAPIKey, "")
	v.SetDefault(KeyResembleAPIURL, "https://app.resemble.ai")
	v.SetDefault(KeyResembleSynthURL, "https://f.cluster.resemble.ai")
	v.SetDefault(KeyResembleTimeout, 90*time.Second)
	v.SetDefault(KeyResembleMaxAudioBytes, int64(10*1024*1024))
	v.SetDefault(KeyDatabaseURL, "")
	v.SetDefault(KeyRedisURL, "")
	v.SetDefault(KeyCallLogMaxLen, int64(1000))
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
}

// Load resolves configuration from flags bound on v, the environment, an
// optional .env file and an optional config file already set on v.
// A nil v uses a fresh viper instance.
func Load(v *viper.Viper) (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		APIPort:            v.GetString(KeyAPIPort),
		BackendAPIKey:      v.GetString(KeyBackendAPIKey),
		CorsAllowedOrigins: v.GetString(KeyCorsAllowedOrigins),
		Resemble: ResembleConfig{
			APIKey:        strings.TrimSpace(v.GetString(KeyResembleAPIKey)),
			APIURL:        strings.TrimRight(v.GetString(KeyResembleAPIURL), "/"),
			SynthURL:      strings.TrimRight(v.GetString(KeyResembleSynthURL), "/"),
			Timeout:       v.GetDuration(KeyResembleTimeout),
			MaxAudioBytes: v.GetInt64(KeyResembleMaxAudioBytes),
		},
		DatabaseURL:   v.GetString(KeyDatabaseURL),
		RedisURL:      v.GetString(KeyRedisURL),
		CallLogMaxLen: v.GetInt64(KeyCallLogMaxLen),
		LogLevel:      v.GetString(KeyLogLevel),
		LogFormat:     v.GetString(KeyLogFormat),
	}

	// Validate required fields
	if cfg.Resemble.APIKey == "" {
		return nil, fmt.Errorf("RESEMBLE_API_KEY is required")
	}

	if cfg.Resemble.Timeout <= 0 {
		return nil, fmt.Errorf("RESEMBLE_TIMEOUT must be positive")
	}

	if cfg.Resemble.MaxAudioBytes <= 0 {
		return nil, fmt.Errorf("RESEMBLE_MAX_AUDIO_BYTES must be positive")
	}

	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("LOG_FORMAT must be json or text, got %q", cfg.LogFormat)
	}

	return cfg, nil
}
