// Package monitoring holds the process-wide diagnostic logger and stage
// timing helpers.
package monitoring

import (
	"log"
	"time"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests mute it with SetLogger(nil).
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// now is swapped in tests.
var now = time.Now

// Time starts timing a pipeline stage. Calling the returned func logs the
// elapsed wall time in milliseconds and returns it.
//
//	defer monitoring.Time("triangulate")()
func Time(stage string) func() time.Duration {
	start := now()
	return func() time.Duration {
		d := now().Sub(start)
		Logf("%s: %d ms", stage, d.Milliseconds())
		return d
	}
}
