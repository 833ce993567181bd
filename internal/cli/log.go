// Package cli implements the atalogics command-line interface.
//
// The commands wrap the v2 and v3 API clients: address checks, timeslots,
// offers, delivery areas, token management and cache inspection. The CLI
// is built using cobra and logs via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - token: Show, refresh or clear the stored access token
//   - address: Check addresses against the delivery areas (v2)
//   - timeslots: List the next bookable timeslots (v2)
//   - offers: List offers between two addresses and decode offer keys (v3)
//   - cities: Look up the delivery areas of a city (v3)
//   - cache: Inspect and clear the response cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// logs token refreshes, cache hits and HTTP round trips.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Fetched 4 timeslots (212ms)"
func (p *progress) done(msg string) {
	p.logger.Debugf("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
