// Package config loads the process configuration from the environment
// with sensible defaults for every knob.
package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/viper"

	"tictacd/game"
)

// Config carries every startup knob. Runtime controls (display, resume,
// end) are only seeded here; they stay adjustable afterwards through the
// attribute surface.
type Config struct {
	TickDelay    time.Duration // interval between simulated interrupts
	Workers      int           // deferred task pool size
	FIFOCapacity int           // export queue size in bytes
	Episodes     int           // search budget of the Monte-Carlo engine
	Goroutines   int           // goroutines sharing the Monte-Carlo tree
	MoveBudget   time.Duration // per-move duration before a slow warning
	LogLevel     string
	Display      byte
	Resume       byte
	End          byte
}

// Load reads TICTACD_-prefixed environment variables over defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("tictacd")
	v.AutomaticEnv()

	v.SetDefault("tick_delay", "100ms")
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("fifo_capacity", 4096)
	v.SetDefault("episodes", 2000)
	v.SetDefault("goroutines", 1)
	v.SetDefault("move_budget", "50ms")
	v.SetDefault("log_level", "info")
	v.SetDefault("display", "1")
	v.SetDefault("resume", "1")
	v.SetDefault("end", "0")

	c := &Config{
		TickDelay:    v.GetDuration("tick_delay"),
		Workers:      v.GetInt("workers"),
		FIFOCapacity: v.GetInt("fifo_capacity"),
		Episodes:     v.GetInt("episodes"),
		Goroutines:   v.GetInt("goroutines"),
		MoveBudget:   v.GetDuration("move_budget"),
		LogLevel:     v.GetString("log_level"),
		Display:      flagByte(v.GetString("display"), '1'),
		Resume:       flagByte(v.GetString("resume"), '1'),
		End:          flagByte(v.GetString("end"), '0'),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func flagByte(s string, fallback byte) byte {
	if len(s) == 0 {
		return fallback
	}
	return s[0]
}

// Validate rejects configurations the pipeline cannot be built from.
func (c *Config) Validate() error {
	if c.TickDelay <= 0 {
		return fmt.Errorf("tick delay must be positive, got %v", c.TickDelay)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("worker count must be positive, got %d", c.Workers)
	}
	if c.FIFOCapacity < game.SnapshotSize {
		return fmt.Errorf("fifo capacity %d cannot hold a %d-byte snapshot",
			c.FIFOCapacity, game.SnapshotSize)
	}
	if c.Episodes <= 0 {
		return fmt.Errorf("episodes must be positive, got %d", c.Episodes)
	}
	if c.Goroutines <= 0 {
		return fmt.Errorf("goroutines must be positive, got %d", c.Goroutines)
	}
	return nil
}
