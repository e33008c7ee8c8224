// Package logger builds the zap logger shared by the server and the stores.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Development       bool
	Encoding          string
	Level             string
	DisableCaller     bool
	DisableStacktrace bool
}

// ConfigFor returns the defaults for an APP_ENV value. Development gets a
// console encoder at debug level; everything else logs JSON at info.
func ConfigFor(appEnv string) Config {
	if strings.EqualFold(appEnv, "development") {
		return Config{Development: true, Encoding: "console", Level: "debug"}
	}
	return Config{Encoding: "json", Level: "info"}
}

func New(cfg Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(parseLevel(cfg.Level))

	encoderCfg := zap.NewProductionEncoderConfig()
	if cfg.Development {
		encoderCfg = zap.NewDevelopmentEncoderConfig()
	}
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	encoding := cfg.Encoding
	if encoding != "console" {
		encoding = "json"
	}

	zcfg := zap.Config{
		Level:             level,
		Development:       cfg.Development,
		DisableCaller:     cfg.DisableCaller,
		DisableStacktrace: cfg.DisableStacktrace,
		Encoding:          encoding,
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
	return zcfg.Build()
}

func parseLevel(raw string) zapcore.Level {
	level, err := zapcore.ParseLevel(strings.TrimSpace(raw))
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}
