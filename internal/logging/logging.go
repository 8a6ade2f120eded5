package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the log file created inside the log directory.
const FileName = "ui.log"

// Options control where and how verbosely the logger writes.
type Options struct {
	Dir     string // log directory; empty disables the file sink
	Level   string // debug, info, warn, error
	Console bool   // also write human readable lines to stderr
}

// New builds the process logger. Every record goes to a size-rotated file under
// opts.Dir. The stdlib log package is redirected into the same sink.
func New(opts Options) (*zap.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var cores []zapcore.Core

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		writer := &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, FileName),
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     7, // days
		}
		cores = append(cores, zapcore.NewCore(fileEncoder(), zapcore.AddSync(writer), level))
	}

	if opts.Console || len(cores) == 0 {
		cores = append(cores, zapcore.NewCore(consoleEncoder(), zapcore.Lock(os.Stderr), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	redirectStdLog(logger)
	return logger, nil
}

// ParseLevel maps a config level name to a zap level. Empty means info.
func ParseLevel(name string) (zap.AtomicLevel, error) {
	if name == "" {
		return zap.NewAtomicLevelAt(zap.InfoLevel), nil
	}
	level, err := zap.ParseAtomicLevel(name)
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("log level %q: %w", name, err)
	}
	return level, nil
}

func fileEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(cfg)
}

func consoleEncoder() zapcore.Encoder {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	return zapcore.NewConsoleEncoder(cfg)
}

// redirectStdLog routes log.Printf output from dependencies into logger and
// returns a function restoring the previous output.
func redirectStdLog(logger *zap.Logger) func() {
	return zap.RedirectStdLog(logger.Named("stdlog"))
}
