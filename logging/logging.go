// Package logging builds the zerolog logger used by every goalsnek binary.
package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Level string `yaml:"level" validate:"oneof=trace debug info warn error"`
	// Format is console (human, coloured), json (one object per line) or
	// pretty (indented json).
	Format string `yaml:"format" validate:"oneof=console json pretty"`
	// Output is stderr, stdout, or a file path that is appended to.
	Output string `yaml:"output"`
}

func DefaultConfig() Config {
	return Config{Level: "info", Format: "console", Output: "stderr"}
}

// New returns a logger for cfg and a function that releases its output.
func New(cfg Config) (zerolog.Logger, func() error, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("log level: %w", err)
	}

	var (
		out     io.Writer
		closeFn = func() error { return nil }
		isFile  bool
	)
	switch cfg.Output {
	case "", "stderr":
		out = os.Stderr
	case "stdout":
		out = os.Stdout
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Output), 0o755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
		}
		out, closeFn, isFile = f, f.Close, true
	}

	switch cfg.Format {
	case "", "console":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: isFile}
	case "json":
	case "pretty":
		out = NewPrettyJSONWriter(out)
	default:
		_ = closeFn()
		return zerolog.Nop(), nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return logger, closeFn, nil
}

// PrettyJSONWriter re-indents each JSON event before writing it. It is meant
// for reading daemon logs by eye, not for throughput.
type PrettyJSONWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewPrettyJSONWriter(w io.Writer) *PrettyJSONWriter {
	return &PrettyJSONWriter{w: w}
}

func (p *PrettyJSONWriter) Write(b []byte) (int, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(b), "", "  "); err != nil {
		// Not JSON; pass it through untouched.
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.w.Write(b)
	}
	buf.WriteByte('\n')

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.w.Write(buf.Bytes()); err != nil {
		return 0, err
	}
	return len(b), nil
}
