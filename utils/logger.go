package utils

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/amirphl/staybook/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultLogLevel = "info"

// NewLogger builds the application logger. Output "file" and "both" write through a
// rotating lumberjack file; the returned closer flushes and closes it.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, io.Closer, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(cfg.Level)))); err != nil || cfg.Level == "" {
		_ = level.UnmarshalText([]byte(defaultLogLevel))
	}

	encoderCfg := zapcore.EncoderConfig{
		MessageKey:    "message",
		TimeKey:       "timestamp",
		LevelKey:      "severity",
		NameKey:       "logger",
		CallerKey:     "caller",
		StacktraceKey: "stacktrace",
		EncodeTime:    zapcore.RFC3339NanoTimeEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
		EncodeLevel: func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(strings.ToUpper(level.String()))
		},
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "console":
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	default:
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	var (
		sinks  []zapcore.WriteSyncer
		closer io.Closer = nopCloser{}
	)
	switch cfg.Output {
	case "", "stdout":
		sinks = append(sinks, zapcore.Lock(os.Stdout))
	case "stderr":
		sinks = append(sinks, zapcore.Lock(os.Stderr))
	case "file", "both":
		if cfg.FilePath == "" {
			return nil, nil, fmt.Errorf("log file path is required for output %q", cfg.Output)
		}
		rotator := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
			LocalTime:  false,
		}
		closer = rotator
		sinks = append(sinks, zapcore.AddSync(rotator))
		if cfg.Output == "both" {
			sinks = append(sinks, zapcore.Lock(os.Stdout))
		}
	default:
		return nil, nil, fmt.Errorf("unsupported log output %q", cfg.Output)
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(sinks...), level)

	var opts []zap.Option
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}
	if cfg.EnableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	return zap.New(core, opts...), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
