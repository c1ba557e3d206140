// Package logging builds the zap logger of an NSS module.
//
// NSS modules are loaded into arbitrary processes, so they never write to
// stdout or stderr: logs go to a lumberjack-rotated file or nowhere.
package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/wippyai/libnss/config"
	"github.com/wippyai/libnss/errors"
)

// New returns a JSON logger writing to cfg.Path and tagged with module.
// An empty path yields a no-op logger.
func New(module string, cfg config.Log) (*zap.Logger, error) {
	if cfg.Path == "" {
		return zap.NewNop(), nil
	}

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		l, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, errors.New(errors.PhaseConfig, errors.KindInvalidData).
				Path("log", "level").
				Value(cfg.Level).
				Cause(err).
				Build()
		}
		level = l
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, errors.Unavailable(errors.PhaseConfig, "create log directory", err)
	}

	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
	})

	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), w, level)
	return zap.New(core).With(
		zap.String("module", module),
		zap.Int("pid", os.Getpid()),
	), nil
}
