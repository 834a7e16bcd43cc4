// Package logging builds the structured loggers used across the server.
//
// Every component takes a log15.Logger and derives a child with its own
// context, for example logger.New("component", "worker"). Records go to
// stderr, coloured on a terminal and in logfmt otherwise.
package logging

import (
	"io"
	"os"

	log15 "github.com/inconshreveable/log15"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// New returns a logger writing to stderr at info level, or debug level when
// debug is set.
func New(debug bool) log15.Logger {
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return NewWithWriter(colorable.NewColorableStderr(), debug, true)
	}
	return NewWithWriter(os.Stderr, debug, false)
}

// NewWithWriter returns a logger writing to w. terminal selects the
// human-readable format instead of logfmt.
func NewWithWriter(w io.Writer, debug, terminal bool) log15.Logger {
	format := log15.LogfmtFormat()
	if terminal {
		format = log15.TerminalFormat()
	}

	level := log15.LvlInfo
	if debug {
		level = log15.LvlDebug
	}

	logger := log15.New()
	logger.SetHandler(log15.LvlFilterHandler(level, log15.StreamHandler(w, format)))
	return logger
}

// Discard returns a logger that drops every record.
func Discard() log15.Logger {
	logger := log15.New()
	logger.SetHandler(log15.DiscardHandler())
	return logger
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l log15.Logger) log15.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
