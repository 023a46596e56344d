// Package logger builds the zap logger shared by the binaries.
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the outputs of New.
type Options struct {
	// FilePath enables a rotated JSON log file when set.
	FilePath   string
	Production bool
	Debug      bool
	// Console is where human-facing logs go. Nil means stderr so that a CLI
	// can write the PDF to stdout.
	Console io.Writer
}

// Rotator returns the lumberjack writer used for log files.
func Rotator(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
}

func fileEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.MessageKey = "message"
	cfg.LevelKey = "level"
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

// New returns a logger that writes to the console and, when configured, to a
// rotated file. The file always gets JSON at info level and above.
func New(opts Options) *zap.Logger {
	jsonEncoder := zapcore.NewJSONEncoder(fileEncoderConfig())

	consoleLevel := zap.InfoLevel
	if opts.Debug {
		consoleLevel = zap.DebugLevel
	}
	var consoleEncoder zapcore.Encoder
	if opts.Production {
		consoleEncoder = jsonEncoder
	} else {
		consoleEncoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.Lock(zapcore.AddSync(console)), consoleLevel),
	}
	if opts.FilePath != "" {
		cores = append(cores, zapcore.NewCore(jsonEncoder, zapcore.AddSync(Rotator(opts.FilePath)), zap.InfoLevel))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}
