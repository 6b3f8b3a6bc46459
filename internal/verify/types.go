package verify

import (
	"time"

	"github.com/temirov/sdsaudit/internal/reconcile"
)

// Options captures the inputs of a single verification run.
type Options struct {
	DatasetID       string
	Root            string
	OutputPath      string
	ProfileFile     string
	Profile         string
	APITokenSource  string
	APISecretSource string
	Parallelism     int
	PresenceMode    reconcile.PresenceMode
	AssumeYes       bool
}

// Outcome summarizes a completed verification run.
type Outcome struct {
	DatasetID     string
	Root          string
	Result        reconcile.Result
	OutputPath    string
	ReportWritten bool
	Elapsed       time.Duration
}

// Clock abstracts time-dependent functionality for deterministic testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the standard library.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
