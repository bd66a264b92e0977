package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Options controls how build logs are written.
type Options struct {
	Debug bool
	// JSON disables the console writer, useful when logs are collected by CI
	JSON bool
	Out  io.Writer
}

func Setup(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	if opts.Debug {
		logger = logger.With().Caller().Logger()
	}

	if !opts.JSON {
		logger = logger.Output(zerolog.ConsoleWriter{Out: out, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}})
	}

	return logger
}
