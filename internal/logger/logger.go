// Package logger builds the CLI's structured logger.
package logger

import (
	"io"
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// New returns a *slog.Logger writing JSON lines to w through a zap core.
// Debug enables debug level output, otherwise only warnings and errors are logged.
func New(w io.Writer, debug bool) (*slog.Logger, func() error) {
	level := zapcore.WarnLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		level,
	)

	return slog.New(zapslog.NewHandler(core)), core.Sync
}
