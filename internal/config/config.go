// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/jason-s-yu/fourrow/internal/models"
)

// Config is read from the environment. Binaries import godotenv/autoload so a
// local .env file is applied first.
type Config struct {
	Port        string        `env:"PORT" envDefault:"8080"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	RedisAddr   string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB     int           `env:"REDIS_DB" envDefault:"0"`
	DatabaseURL string        `env:"DATABASE_URL"`
	QueueName   string        `env:"HISTORIAN_QUEUE_NAME" envDefault:"fourrow_actions"`
	SnapshotTTL time.Duration `env:"SNAPSHOT_TTL" envDefault:"24h"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"12h"`
	IdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
	RulesFile   string        `env:"RULES_FILE"`
	DrawCount   int           `env:"DRAW_COUNT" envDefault:"1"`
	Difficulty  string        `env:"DIFFICULTY" envDefault:"medium"`

	// Both key paths must be set to use keys from disk; otherwise a key pair
	// is generated at startup and tokens do not survive a restart.
	PrivateKeyPath string `env:"JWT_PRIVATE_KEY_PATH"`
	PublicKeyPath  string `env:"JWT_PUBLIC_KEY_PATH"`

	// historian
	BatchSize         int           `env:"HISTORIAN_BATCH_SIZE" envDefault:"20"`
	FlushDelay        time.Duration `env:"HISTORIAN_FLUSH_DELAY" envDefault:"500ms"`
	InactivityTimeout time.Duration `env:"GAME_INACTIVITY_TIMEOUT" envDefault:"10m"`
}

// RulesPreset is the shape of the optional rules file:
//
//	draw_count = 3
//	difficulty = "hard"
type RulesPreset struct {
	DrawCount  int    `toml:"draw_count"`
	Difficulty string `toml:"difficulty"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Rules builds the default game rules. A rules file, when set, overrides the
// environment values it names.
func (c *Config) Rules() (models.Rules, error) {
	drawCount, difficulty := c.DrawCount, c.Difficulty
	if c.RulesFile != "" {
		preset, err := LoadRulesFile(c.RulesFile)
		if err != nil {
			return models.Rules{}, err
		}
		if preset.DrawCount != 0 {
			drawCount = preset.DrawCount
		}
		if preset.Difficulty != "" {
			difficulty = preset.Difficulty
		}
	}

	d, err := models.ParseDifficulty(difficulty)
	if err != nil {
		return models.Rules{}, err
	}
	rules := models.Rules{DrawCount: drawCount, Difficulty: d}
	if err := rules.Validate(); err != nil {
		return models.Rules{}, err
	}
	return rules, nil
}

// LoadRulesFile decodes a TOML rules preset.
func LoadRulesFile(path string) (RulesPreset, error) {
	var preset RulesPreset
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return preset, fmt.Errorf("rules file %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, &preset); err != nil {
		return preset, fmt.Errorf("error decoding rules file: %w", err)
	}
	return preset, nil
}
