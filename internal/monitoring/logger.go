// Package monitoring carries the process-wide diagnostic logger and the
// operator-facing render diagnostics reporters.
package monitoring

import (
	"errors"
	"log"
	"time"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Diagnostic is one failed render as seen by an operator. It records the size
// of the input, never the input itself.
type Diagnostic struct {
	RenderID   string    `json:"render_id"`
	Kind       string    `json:"kind"`
	Message    string    `json:"message"`
	InputBytes int       `json:"input_bytes"`
	CreatedAt  time.Time `json:"created_at"`
}

// Reporter receives render diagnostics.
type Reporter interface {
	Report(d Diagnostic) error
}

// LogReporter writes diagnostics through Logf.
type LogReporter struct{}

// Report logs d and never fails.
func (LogReporter) Report(d Diagnostic) error {
	Logf("render %s failed: kind=%s bytes=%d: %s", d.RenderID, d.Kind, d.InputBytes, d.Message)
	return nil
}

// MultiReporter fans a diagnostic out to every reporter, continuing past failures.
type MultiReporter []Reporter

// Report calls every non-nil reporter and joins their errors.
func (m MultiReporter) Report(d Diagnostic) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Report(d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
