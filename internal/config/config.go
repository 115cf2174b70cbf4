// internal/config/config.go
//
// Process configuration.
// Values come from the environment, optionally seeded from a .env file in development.
//
// Environment variables:
//   PORT, LOG_LEVEL, LOG_PRETTY            – listener and logging
//   CLIENT_ORIGIN                          – single CORS origin (credentials enabled)
//   DB_PATH                                – sqlite file for accounts and scores
//   JWT_SECRET, JWT_EXPIRES_DAYS           – auth tokens
//   COOKIE_NAME, NODE_ENV                  – auth cookie name, production cookie flags
//   SYMBOLS_FILE                           – alphabet override (see internal/symbols)
//   DAILY_SALT                             – daily board seed salt
//   PREVIEW_DWELL, COMPARE_DELAY,
//   TICK_INTERVAL                          – engine timing (Go durations, e.g. "3s")
//   SESSION_TTL, SWEEP_INTERVAL            – idle session eviction

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/robalobadob/memory/apps/go-server/internal/game"
)

type Config struct {
	Port      string `env:"PORT" envDefault:"5175"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`

	ClientOrigin string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	DBPath       string `env:"DB_PATH" envDefault:"./data/memory.db"`

	JWTSecret      string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	JWTExpiresDays int    `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	CookieName     string `env:"COOKIE_NAME" envDefault:"memory_token"`
	NodeEnv        string `env:"NODE_ENV" envDefault:"development"`

	SymbolsFile string `env:"SYMBOLS_FILE"`
	DailySalt   string `env:"DAILY_SALT" envDefault:"local_dev_salt"`

	PreviewDwell  time.Duration `env:"PREVIEW_DWELL" envDefault:"3s"`
	CompareDelay  time.Duration `env:"COMPARE_DELAY" envDefault:"1s"`
	TickInterval  time.Duration `env:"TICK_INTERVAL" envDefault:"1s"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
}

// Load reads .env (if present) and parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the environment without touching .env.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	for name, d := range map[string]time.Duration{
		"PREVIEW_DWELL":  c.PreviewDwell,
		"COMPARE_DELAY":  c.CompareDelay,
		"TICK_INTERVAL":  c.TickInterval,
		"SESSION_TTL":    c.SessionTTL,
		"SWEEP_INTERVAL": c.SweepInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("config: %s must be positive, got %s", name, d)
		}
	}
	if c.JWTExpiresDays <= 0 {
		return fmt.Errorf("config: JWT_EXPIRES_DAYS must be positive, got %d", c.JWTExpiresDays)
	}
	return nil
}

// Production reports whether cookies need Secure/SameSite=None.
func (c Config) Production() bool { return c.NodeEnv == "production" }

// Timing maps the engine delays.
func (c Config) Timing() game.Timing {
	return game.Timing{Dwell: c.PreviewDwell, Compare: c.CompareDelay, Tick: c.TickInterval}
}

// TokenTTL is the auth token lifetime.
func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpiresDays) * 24 * time.Hour
}
