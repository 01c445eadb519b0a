package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port            string   `mapstructure:"PORT"`
	Env             string   `mapstructure:"ENV"`
	DatabaseURL     string   `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins     []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS    float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst  int      `mapstructure:"RATE_LIMIT_BURST"`
	ICDBaseURL      string   `mapstructure:"ICD_BASE_URL"`
	ICDTokenURL     string   `mapstructure:"ICD_TOKEN_URL"`
	ICDClientID     string   `mapstructure:"ICD_CLIENT_ID"`
	ICDClientSecret string   `mapstructure:"ICD_CLIENT_SECRET"`
	NAMASTECSVPath  string   `mapstructure:"NAMASTE_CSV_PATH"`
	SearchLimit     int      `mapstructure:"SEARCH_LIMIT"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("ICD_BASE_URL", "https://id.who.int")
	v.SetDefault("ICD_TOKEN_URL", "https://icdaccessmanagement.who.int/connect/token")
	v.SetDefault("SEARCH_LIMIT", 20)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("ICD_BASE_URL")
	v.BindEnv("ICD_TOKEN_URL")
	v.BindEnv("ICD_CLIENT_ID")
	v.BindEnv("ICD_CLIENT_SECRET")
	v.BindEnv("NAMASTE_CSV_PATH")
	v.BindEnv("SEARCH_LIMIT")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ICDConfigured reports whether WHO ICD API credentials are present. The
// mapping builder and upstream health probe are disabled without them.
func (c *Config) ICDConfigured() bool {
	return c.ICDClientID != "" && c.ICDClientSecret != ""
}

// Validate checks that the configuration is safe to run. Production requires
// ICD credentials so the mapping pipeline and upstream probe work; a missing
// NAMASTE CSV path is allowed because concepts normally come from Postgres.
func (c *Config) Validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be \"development\", \"staging\", or \"production\", got %q", c.Env)
	}
	if c.SearchLimit <= 0 || c.SearchLimit > 100 {
		return fmt.Errorf("SEARCH_LIMIT must be between 1 and 100, got %d", c.SearchLimit)
	}
	if c.IsProduction() && !c.ICDConfigured() {
		return fmt.Errorf("ICD_CLIENT_ID and ICD_CLIENT_SECRET are required in production")
	}
	return nil
}
