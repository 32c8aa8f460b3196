// Package logging builds the logr.Logger used across the client, backed by
// zap.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// Output formats.
const (
	FormatAuto    = "auto"
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options configures New.
type Options struct {
	// Name is attached to every entry.
	Name string

	// Level is a level name or positive verbosity. Empty means info.
	Level string

	// Format is console, json or auto. Auto picks console when Output is a
	// terminal and json otherwise.
	Format string

	// Output defaults to os.Stderr.
	Output io.Writer
}

// Logger is a logr.Logger with an adjustable level.
type Logger struct {
	logr.Logger
	atomicLevel zap.AtomicLevel
	flush       func()
}

// New creates a Logger.
func New(opts Options) (*Logger, error) {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	level := zapcore.InfoLevel
	if opts.Level != "" {
		l, err := ParseLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		level = l
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch resolveFormat(opts.Format, opts.Output) {
	case FormatJSON:
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	case FormatConsole:
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	atomicLevel := zap.NewAtomicLevelAt(level)
	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(opts.Output)), atomicLevel)
	zapLogger := zap.New(core)

	log := zapr.NewLogger(zapLogger)
	if opts.Name != "" {
		log = log.WithName(opts.Name)
	}

	return &Logger{
		Logger:      log,
		atomicLevel: atomicLevel,
		flush: func() {
			_ = zapLogger.Sync()
		},
	}, nil
}

// SetLevel changes the minimum level of emitted entries.
func (l *Logger) SetLevel(level zapcore.Level) {
	l.atomicLevel.SetLevel(level)
}

// Level returns the current minimum level.
func (l *Logger) Level() zapcore.Level {
	return l.atomicLevel.Level()
}

// Flush writes out buffered entries.
func (l *Logger) Flush() {
	l.flush()
}

func resolveFormat(format string, out io.Writer) string {
	switch strings.ToLower(format) {
	case "", FormatAuto:
		if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return FormatConsole
		}
		return FormatJSON
	default:
		return strings.ToLower(format)
	}
}
