// Package cli implements the boardpack command-line interface.
//
// # Commands
//
//   - layout: place a board and write its layout (and optional renders)
//   - render: render a saved layout to SVG, PDF, XLSX or JSON
//   - pack: answer a flat JSON pack request (file, stdin or a remote server)
//   - graph: draw the connectivity graph with its clusters (DOT or SVG)
//   - compare: lay out a board under several weight scenarios and pick one
//   - serve: run the HTTP API
//   - cache: inspect or clear the layout cache
//
// # Configuration
//
// Settings are read from $XDG_CONFIG_HOME/boardpack/config.toml or the file
// named by --config; command flags override them.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// also attached to the command context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger that writes timestamps as "HH:MM:SS.ms".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the elapsed time of one operation. It is not safe for
// concurrent use.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Placed 42 components (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the attached logger or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
