// Package logging builds the zerolog logger shared by hostctl components.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/rs/zerolog"
	slogzerolog "github.com/samber/slog-zerolog/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	Level zerolog.Level
	// Console receives human readable output. Defaults to stderr.
	Console io.Writer
	// File, when set, also receives JSON lines through a rotating writer.
	File       string
	MaxSizeMB  int
	MaxBackups int
	NoColor    bool
}

// Logger wraps the configured logger and any file sink it owns.
type Logger struct {
	zerolog.Logger
	file *lumberjack.Logger
}

// New creates the logger and installs it as the slog default.
func New(opts Options) *Logger {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        console,
		NoColor:    opts.NoColor,
		TimeFormat: time.TimeOnly,
		PartsExclude: []string{
			zerolog.TimestampFieldName,
		},
	}}

	l := &Logger{}
	if opts.File != "" {
		l.file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}
		writers = append(writers, l.file)
	}

	l.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(opts.Level).
		With().
		Timestamp().
		Logger()

	slog.SetDefault(slog.New(slogzerolog.Option{
		Level:  slogLevel(opts.Level),
		Logger: &l.Logger,
	}.NewZerologHandler()))

	return l
}

// Nop returns a logger that discards everything.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// Close flushes and closes the rotating file, if any.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func slogLevel(level zerolog.Level) slog.Level {
	switch {
	case level <= zerolog.DebugLevel:
		return slog.LevelDebug
	case level == zerolog.InfoLevel:
		return slog.LevelInfo
	case level == zerolog.WarnLevel:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
