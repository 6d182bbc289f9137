// Package logging builds the zap logger used by the command line tool.
package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New creates a logger writing to w and, when config.File is set, to a
// rotating log file. The returned closer releases the file.
func New(config Config, w io.Writer) (*zap.Logger, io.Closer) {
	config.applyDefaults()

	terminal := zapcore.Lock(zapcore.AddSync(w))

	level := zap.NewAtomicLevelAt(config.TransportLevel())
	cores := []zapcore.Core{
		zapcore.NewCore(encoder(config), terminal, level),
	}

	var closer io.Closer = nopCloser{}
	if config.File != "" {
		file := &lumberjack.Logger{
			Filename:   config.File,
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
			Compress:   config.Compress,
			LocalTime:  true,
		}
		// Files always get JSON so they stay machine readable.
		fileConfig := config
		fileConfig.Format = "json"
		cores = append(cores, zapcore.NewCore(encoder(fileConfig), zapcore.AddSync(file), level))
		closer = file
	}

	return zap.New(zapcore.NewTee(cores...)), closer
}

func encoder(config Config) zapcore.Encoder {
	cfg := zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "logger",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}
	if config.Format == "json" {
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg.TimeKey = ""
	return zapcore.NewConsoleEncoder(cfg)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
