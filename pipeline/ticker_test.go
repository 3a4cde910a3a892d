package pipeline

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTickerFiresAndRearms(t *testing.T) {
	var fires atomic.Int32
	tk := NewTicker(5*time.Millisecond, func() bool {
		fires.Add(1)
		return true
	})

	require.True(t, tk.Arm())
	require.True(t, tk.Armed())

	require.Eventually(t, func() bool { return fires.Load() >= 3 },
		time.Second, time.Millisecond, "callback should keep re-arming itself")

	tk.Disarm()
	require.False(t, tk.Armed())
}

func TestTickerDoubleArm(t *testing.T) {
	tk := NewTicker(time.Hour, func() bool { return true })
	require.True(t, tk.Arm())
	require.False(t, tk.Arm(), "second arm must be rejected")
	tk.Disarm()
}

func TestTickerStopsWhenCallbackDeclinesRearm(t *testing.T) {
	var fires atomic.Int32
	tk := NewTicker(time.Millisecond, func() bool {
		return fires.Add(1) < 2
	})

	require.True(t, tk.Arm())
	require.Eventually(t, func() bool { return !tk.Armed() },
		time.Second, time.Millisecond, "ticker should disarm itself")

	count := fires.Load()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, count, fires.Load(), "no further fires after self-disarm")

	require.True(t, tk.Arm(), "a self-disarmed ticker can be re-armed")
	tk.Disarm()
}

func TestDisarmWaitsForInFlightCallback(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool

	tk := NewTicker(time.Millisecond, func() bool {
		close(entered)
		<-release
		finished.Store(true)
		return true
	})
	require.True(t, tk.Arm())
	<-entered

	disarmed := make(chan struct{})
	go func() {
		tk.Disarm()
		close(disarmed)
	}()

	select {
	case <-disarmed:
		t.Fatal("disarm returned while a callback was still running")
	case <-time.After(30 * time.Millisecond):
	}

	close(release)
	select {
	case <-disarmed:
	case <-time.After(time.Second):
		t.Fatal("disarm did not return after the callback finished")
	}
	require.True(t, finished.Load(), "the in-flight callback must be allowed to finish")
	require.False(t, tk.Armed())
}

func TestDisarmIdempotent(t *testing.T) {
	tk := NewTicker(time.Hour, func() bool { return true })
	tk.Disarm() // never armed
	require.True(t, tk.Arm())
	tk.Disarm()
	tk.Disarm()
	require.False(t, tk.Armed())
}

func TestNoFiresAfterDisarm(t *testing.T) {
	var fires atomic.Int32
	tk := NewTicker(time.Millisecond, func() bool {
		fires.Add(1)
		return true
	})
	require.True(t, tk.Arm())
	require.Eventually(t, func() bool { return fires.Load() > 0 }, time.Second, time.Millisecond)

	tk.Disarm()
	count := fires.Load()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, count, fires.Load(), "nothing new may start after disarm")
}

func TestNewTickerValidation(t *testing.T) {
	require.Panics(t, func() { NewTicker(0, func() bool { return true }) })
	require.Panics(t, func() { NewTicker(time.Second, nil) })
}
