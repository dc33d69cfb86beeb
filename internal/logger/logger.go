package logger

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
)

// Logger wraps charm/log for structured logging
type Logger struct {
	*log.Logger
}

func options(level log.Level) log.Options {
	return log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
	}
}

// New creates a new logger with the given output
func New(w io.Writer) *Logger {
	return &Logger{Logger: log.NewWithOptions(w, options(log.InfoLevel))}
}

// NewWithLevel creates a logger with a specific level
func NewWithLevel(w io.Writer, level log.Level) *Logger {
	return &Logger{Logger: log.NewWithOptions(w, options(level))}
}

// NewFileLogger creates a logger that appends to a file and copies every
// record to also
func NewFileLogger(path string, level log.Level, also ...io.Writer) (*Logger, func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		f.Close()
	}

	return NewMultiLogger(level, append([]io.Writer{f}, also...)...), cleanup, nil
}

// NewMultiLogger creates a logger that writes to multiple outputs
func NewMultiLogger(level log.Level, writers ...io.Writer) *Logger {
	return NewWithLevel(io.MultiWriter(writers...), level)
}

// Discard returns a logger that discards all output
func Discard() *Logger {
	return New(io.Discard)
}

// BuildStarted logs the start of a build
func (l *Logger) BuildStarted(sourceDir, outputDir, format string) {
	l.Info("build started",
		"source_dir", sourceDir,
		"output_dir", outputDir,
		"format", format)
}

// BuildCompleted logs the end of a build
func (l *Logger) BuildCompleted(rendered, skipped, errors int, bytes int64, duration time.Duration) {
	l.Info("build completed",
		"rendered", rendered,
		"skipped", skipped,
		"errors", errors,
		"written", humanize.Bytes(uint64(bytes)),
		"duration", duration.Round(time.Millisecond))
}

// FileRendered logs a successfully rendered file
func (l *Logger) FileRendered(source, dest string, size int) {
	l.Info("file rendered",
		"source", source,
		"dest", dest,
		"size", humanize.Bytes(uint64(size)))
}

// ParseFailed logs a file that could not be parsed
func (l *Logger) ParseFailed(file string, err error) {
	l.Error("parse failed",
		"file", file,
		"error", err)
}

// FileError logs an error for a specific file
func (l *Logger) FileError(file string, err error) {
	l.Error("file error",
		"file", file,
		"error", err)
}

// RoundTripMismatch logs a file whose org rendering does not re-parse to
// the same tree
func (l *Logger) RoundTripMismatch(file string, changedLines int) {
	l.Warn("round trip mismatch",
		"file", file,
		"changed_lines", changedLines)
}

// StateError logs a state-related error
func (l *Logger) StateError(operation string, err error) {
	l.Error("state error",
		"operation", operation,
		"error", err)
}

// ConfigLoaded logs successful config loading
func (l *Logger) ConfigLoaded(sourceDir, outputDir, format string) {
	l.Debug("config loaded",
		"source_dir", sourceDir,
		"output_dir", outputDir,
		"format", format)
}

// Skipped logs when a file is skipped
func (l *Logger) Skipped(file, reason string) {
	l.Debug("file skipped",
		"file", file,
		"reason", reason)
}
