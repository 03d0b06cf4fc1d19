// Package monitoring provides structured logging and Prometheus metrics
// for the generation pipeline.
package monitoring

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig holds logging configuration
type LogConfig struct {
	Level       string
	Format      string // "json" or "console"
	ServiceName string
	Environment string
	Version     string
}

// NewLogger creates a structured zap logger. Production uses JSON with
// ISO8601 timestamps; development uses the colored console encoder.
func NewLogger(config LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level '%s': %w", config.Level, err)
	}

	var encoder zapcore.Encoder
	if config.Format == "json" {
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.MessageKey = "message"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	logger = logger.With(
		zap.String("service", config.ServiceName),
		zap.String("environment", config.Environment),
		zap.String("version", config.Version),
	)

	return logger, nil
}

// GenerationLogger logs one pipeline request outcome with the fields the
// dashboards key on.
func GenerationLogger(logger *zap.Logger, userID, outcome string, cost float64, latency time.Duration, cacheHit bool) {
	logger.Info("Recipe generation completed",
		zap.String("user_id", userID),
		zap.String("outcome", outcome),
		zap.Float64("cost", cost),
		zap.Duration("latency", latency),
		zap.Bool("cache_hit", cacheHit),
	)
}
