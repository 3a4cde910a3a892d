package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	require.Equal(t, 100*time.Millisecond, c.TickDelay)
	require.Equal(t, 4096, c.FIFOCapacity)
	require.Equal(t, 2000, c.Episodes)
	require.Positive(t, c.Workers)
	require.Equal(t, byte('1'), c.Display)
	require.Equal(t, byte('1'), c.Resume)
	require.Equal(t, byte('0'), c.End)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("TICTACD_TICK_DELAY", "10ms")
	t.Setenv("TICTACD_WORKERS", "2")
	t.Setenv("TICTACD_DISPLAY", "0")

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, 10*time.Millisecond, c.TickDelay)
	require.Equal(t, 2, c.Workers)
	require.Equal(t, byte('0'), c.Display)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("TICTACD_FIFO_CAPACITY", "10")
	_, err := Load()
	require.Error(t, err, "a fifo smaller than one snapshot must be rejected")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			TickDelay:    time.Millisecond,
			Workers:      1,
			FIFOCapacity: 4096,
			Episodes:     100,
			Goroutines:   1,
		}
	}

	require.NoError(t, valid().Validate())

	c := valid()
	c.TickDelay = 0
	require.Error(t, c.Validate())

	c = valid()
	c.Workers = 0
	require.Error(t, c.Validate())

	c = valid()
	c.Episodes = -1
	require.Error(t, c.Validate())
}
