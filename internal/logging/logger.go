// Package logging wraps zap for the analyses and transformations in this
// module.
package logging

import (
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger encapsulates a Logger and module which it belongs to.
type Logger struct {
	*zap.SugaredLogger
	module string
}

// Options controls how a Logger is built.
type Options struct {
	Debug bool   // Use the development config (debug level, console output).
	File  string // Also write to a rotated log file if non-empty.

	MaxSizeMB  int // Rotate after this many megabytes (lumberjack default if 0).
	MaxBackups int
}

// New returns a new Logger built from opts.
func New(opts Options) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	if opts.Debug {
		cfg = zap.NewDevelopmentConfig()
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "cannot create new logger")
	}
	if opts.File != "" {
		sink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		})
		fileCore := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg.EncoderConfig), sink, cfg.Level)
		l = l.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, fileCore)
		}))
	}
	return &Logger{SugaredLogger: l.Sugar()}, nil
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// Module returns a copy of l tagged with module name, stylised with attr.
func (l *Logger) Module(name string, attr color.Attribute) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger, module: color.New(attr).Sprint(name)}
}

// Tag returns (stylised) module name.
func (l *Logger) Tag() string {
	return l.module
}

// OrNop returns l, or a discarding Logger if l is nil.
func OrNop(l *Logger) *Logger {
	if l == nil {
		return Nop()
	}
	return l
}
