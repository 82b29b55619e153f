// SPDX-License-Identifier: MPL-2.0

package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	// FormatText renders human-readable, optionally colored lines.
	FormatText Format = "text"
	// FormatJSON renders one JSON object per line.
	FormatJSON Format = "json"
	// FormatLogfmt renders key=value pairs.
	FormatLogfmt Format = "logfmt"

	// LevelDebug enables debug output, including provider discovery.
	LevelDebug Level = "debug"
	// LevelInfo is the default level.
	LevelInfo Level = "info"
	// LevelWarn only reports warnings and errors.
	LevelWarn Level = "warn"
	// LevelError only reports errors.
	LevelError Level = "error"
)

var (
	// ErrInvalidFormat is returned for an unrecognized Format.
	ErrInvalidFormat = errors.New("invalid log format")
	// ErrInvalidLevel is returned for an unrecognized Level.
	ErrInvalidLevel = errors.New("invalid log level")
)

type (
	// Format selects the log line encoding.
	Format string

	// Level is a minimum severity name.
	Level string

	// Options configure New.
	Options struct {
		Level  Level
		Format Format
		// Prefix is printed before every message, e.g. the binary name.
		Prefix string
		// ReportTimestamp adds a timestamp to each line.
		ReportTimestamp bool
	}
)

// Validate reports whether f is a known format. The empty format is valid
// and means FormatText.
func (f Format) Validate() error {
	switch f {
	case "", FormatText, FormatJSON, FormatLogfmt:
		return nil
	default:
		return fmt.Errorf("%w: %q (valid: text, json, logfmt)", ErrInvalidFormat, string(f))
	}
}

// Validate reports whether l is a known level. The empty level is valid and
// means LevelInfo.
func (l Level) Validate() error {
	_, err := l.parse()
	return err
}

func (l Level) parse() (log.Level, error) {
	switch Level(strings.ToLower(string(l))) {
	case "", LevelInfo:
		return log.InfoLevel, nil
	case LevelDebug:
		return log.DebugLevel, nil
	case LevelWarn, "warning":
		return log.WarnLevel, nil
	case LevelError:
		return log.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("%w: %q (valid: debug, info, warn, error)", ErrInvalidLevel, string(l))
	}
}

func (f Format) formatter() log.Formatter {
	switch f {
	case FormatJSON:
		return log.JSONFormatter
	case FormatLogfmt:
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// New returns a slog.Logger writing to w through a charmbracelet/log handler.
func New(w io.Writer, opts Options) (*slog.Logger, error) {
	if err := opts.Format.Validate(); err != nil {
		return nil, err
	}
	level, err := opts.Level.parse()
	if err != nil {
		return nil, err
	}

	handler := log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       opts.Format.formatter(),
		Prefix:          opts.Prefix,
		ReportTimestamp: opts.ReportTimestamp,
	})
	return slog.New(handler), nil
}
