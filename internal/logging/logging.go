package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// Version is overridden at build time with -ldflags "-X ...logging.Version=...".
var Version = "dev"

type Options struct {
	Debug   bool
	JSON    bool
	Service string
	Version string
	// UID tags every record with a random identifier for this process.
	UID bool
	// Output defaults to os.Stderr, leaving stdout to command output.
	Output io.Writer
}

// Setup returns a logger configured from opts.
func Setup(opts *Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	logger := slog.New(handler)
	if opts.Service != "" {
		logger = logger.With("service", opts.Service)
	}
	if opts.Version != "" {
		logger = logger.With("version", opts.Version)
	}
	if opts.UID {
		logger = logger.With("uid", uuid.Must(uuid.NewRandom()).String())
	}
	return logger
}

// Discard returns a logger that drops everything, for tests and library defaults.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
