package monitoring

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")
	assert.True(t, called, "custom logger was not called")

	called = false
	SetLogger(nil)
	Logf("test message")
	assert.False(t, called, "no-op logger should not reach the previous logger")
}

func TestLogf_Default(t *testing.T) {
	assert.NotNil(t, Logf)
	assert.NotPanics(t, func() { Logf("test message: %s", "value") })
}

func TestTime(t *testing.T) {
	originalLog, originalNow := Logf, now
	defer func() { Logf, now = originalLog, originalNow }()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ticks := []time.Time{base, base.Add(1250 * time.Millisecond)}
	now = func() time.Time {
		t := ticks[0]
		ticks = ticks[1:]
		return t
	}
	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})

	stop := Time("render")
	d := stop()

	assert.Equal(t, 1250*time.Millisecond, d)
	assert.Equal(t, []string{"render: 1250 ms"}, lines)
}
