package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Engine   EngineConfig
	Redis    RedisConfig
	Holocron HolocronConfig
	Feed     FeedConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        string
	CORSOrigins []string
	Timeout     time.Duration
}

// EngineConfig holds analytics defaults
type EngineConfig struct {
	DefaultBankroll float64
	MinEdge         float64
	SimTrials       int
	SimWorkers      int
	SimSeed         uint64 // 0 = random per call
	RiskFreeRate    float64
}

// RedisConfig holds Redis stream publishing configuration. Empty URL disables publishing.
type RedisConfig struct {
	URL                 string
	Password            string
	OpportunitiesStream string
	DedupTTL            time.Duration
}

// HolocronConfig holds the Postgres opportunity log. Empty DSN disables it.
type HolocronConfig struct {
	DSN string
}

// FeedConfig holds the websocket live feed configuration
type FeedConfig struct {
	Enabled bool
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// Load reads an optional .env file, then environment variables over defaults
func Load(envFiles ...string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:        v.GetString("ARB_SERVICE_PORT"),
			CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
			Timeout:     v.GetDuration("REQUEST_TIMEOUT"),
		},
		Engine: EngineConfig{
			DefaultBankroll: v.GetFloat64("DEFAULT_BANKROLL"),
			MinEdge:         v.GetFloat64("MIN_EDGE"),
			SimTrials:       v.GetInt("SIM_TRIALS"),
			SimWorkers:      v.GetInt("SIM_WORKERS"),
			SimSeed:         v.GetUint64("SIM_SEED"),
			RiskFreeRate:    v.GetFloat64("RISK_FREE_RATE"),
		},
		Redis: RedisConfig{
			URL:                 v.GetString("REDIS_URL"),
			Password:            v.GetString("REDIS_PASSWORD"),
			OpportunitiesStream: v.GetString("OPPORTUNITIES_STREAM"),
			DedupTTL:            time.Duration(v.GetInt("DEDUP_TTL_MINUTES")) * time.Minute,
		},
		Holocron: HolocronConfig{
			DSN: v.GetString("HOLOCRON_DSN"),
		},
		Feed: FeedConfig{
			Enabled: v.GetBool("ENABLE_LIVE_FEED"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("ARB_SERVICE_PORT", "8086")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")
	v.SetDefault("REQUEST_TIMEOUT", "60s")

	v.SetDefault("DEFAULT_BANKROLL", 1000.0)
	v.SetDefault("MIN_EDGE", 0.0)
	v.SetDefault("SIM_TRIALS", 2000)
	v.SetDefault("SIM_WORKERS", runtime.NumCPU())
	v.SetDefault("SIM_SEED", 0)
	v.SetDefault("RISK_FREE_RATE", 0.01)

	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("OPPORTUNITIES_STREAM", "opportunities.arbitrage")
	v.SetDefault("DEDUP_TTL_MINUTES", 5)

	v.SetDefault("HOLOCRON_DSN", "")
	v.SetDefault("ENABLE_LIVE_FEED", true)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("ARB_SERVICE_PORT is required")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.Engine.DefaultBankroll <= 0 {
		return fmt.Errorf("DEFAULT_BANKROLL must be positive")
	}
	if c.Engine.MinEdge < 0 {
		return fmt.Errorf("MIN_EDGE must not be negative")
	}
	if c.Engine.SimTrials < 1 {
		return fmt.Errorf("SIM_TRIALS must be at least 1")
	}
	if c.Engine.SimWorkers < 1 {
		return fmt.Errorf("SIM_WORKERS must be at least 1")
	}
	if c.Engine.RiskFreeRate < 0 || c.Engine.RiskFreeRate > 1 {
		return fmt.Errorf("RISK_FREE_RATE must be between 0 and 1")
	}
	if c.Redis.URL != "" && c.Redis.OpportunitiesStream == "" {
		return fmt.Errorf("OPPORTUNITIES_STREAM is required when REDIS_URL is set")
	}
	if c.Redis.DedupTTL < 0 {
		return fmt.Errorf("DEDUP_TTL_MINUTES must not be negative")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, text")
	}

	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
