package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger is the application logger. It writes structured JSON to stdout
// and, when a file path is configured, to a log file as well.
type ZapLogger struct {
	*zap.Logger
	sugar *zap.SugaredLogger
	file  *os.File
}

// Config holds logger configuration
type Config struct {
	Level    string `json:"level"`
	FilePath string `json:"file_path"`
}

// NewZapLogger creates a new application logger
func NewZapLogger(cfg Config) (*ZapLogger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.MessageKey = "message"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level),
	}

	var file *os.File
	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err = os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(file), level))
	}

	zl := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return &ZapLogger{
		Logger: zl,
		sugar:  zl.Sugar(),
		file:   file,
	}, nil
}

// Sugared returns the sugared variant for printf-style call sites.
func (l *ZapLogger) Sugared() *zap.SugaredLogger {
	return l.sugar
}

// Close flushes buffered entries and releases the log file, if any.
func (l *ZapLogger) Close() error {
	_ = l.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
