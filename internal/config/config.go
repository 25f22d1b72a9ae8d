// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"matchlab/internal/matching"
)

// Config is the web server's configuration.
type Config struct {
	Port          string        `env:"PORT" envDefault:"8080"`
	DBPath        string        `env:"MATCHLAB_DB_PATH" envDefault:"matchlab.db"`
	MemoryRecords bool          `env:"MATCHLAB_MEMORY_RECORDS" envDefault:"false"`
	Lang          string        `env:"MATCHLAB_LANG" envDefault:"id"`
	WrongRevert   time.Duration `env:"MATCHLAB_WRONG_REVERT" envDefault:"400ms"`
	HapticPulse   time.Duration `env:"MATCHLAB_HAPTIC_PULSE" envDefault:"80ms"`
	RecordToast   time.Duration `env:"MATCHLAB_RECORD_TOAST" envDefault:"3200ms"`
	DoneToast     time.Duration `env:"MATCHLAB_DONE_TOAST" envDefault:"2800ms"`
	DeskIdle      time.Duration `env:"MATCHLAB_DESK_IDLE" envDefault:"2h"`
	SweepEvery    time.Duration `env:"MATCHLAB_SWEEP_EVERY" envDefault:"10m"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses Config from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Addr is the listen address for Port.
func (c Config) Addr() string {
	return ":" + c.Port
}

// Tuning maps the timing settings onto every game.
func (c Config) Tuning() matching.Tuning {
	return matching.Tuning{
		Lang:        c.Lang,
		WrongRevert: c.WrongRevert,
		HapticPulse: c.HapticPulse,
		RecordToast: c.RecordToast,
		DoneToast:   c.DoneToast,
	}
}
