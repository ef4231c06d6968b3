// Package cli implements the dsgviz command-line interface.
//
// The CLI is built with cobra and logs through charmbracelet/log. Status
// lines and tables are styled with lipgloss.
//
// # Commands
//
//   - serve: run the redraw loop, publish markers, and expose the control API
//   - render: run one pass over a graph and print or write the batches
//   - layers: show the per-layer configuration as a table
//   - dot: dump the graph structure as Graphviz DOT or SVG
//   - config: print the effective configuration or validate a file
//   - import: store a graph document in MongoDB
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, rounded to the millisecond.
// Example output: "Loaded graph (12ms)"
func (p *progress) done(msg string, keyvals ...any) {
	p.logger.Info(msg, append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))...)
}
