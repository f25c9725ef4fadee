// Package logging builds the application's zap logger.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FileName is the log file created inside Options.Dir.
const FileName = "refer.log"

// Options selects where and how verbosely to log.
type Options struct {
	// Debug sends development-level output to stderr.
	Debug bool
	// Dir receives FileName when not debugging. Empty disables logging.
	Dir string
}

// New returns a logger for opts and a function that flushes and releases it.
func New(opts Options) (*zap.Logger, func(), error) {
	if opts.Debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

		logger, err := cfg.Build()
		if err != nil {
			return nil, nil, fmt.Errorf("building debug logger: %w", err)
		}

		return logger, func() { _ = logger.Sync() }, nil
	}

	if opts.Dir == "" {
		return zap.NewNop(), func() {}, nil
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	// Opened directly: zap's path sinks parse Windows drive letters as URL schemes.
	file, err := os.OpenFile(filepath.Join(opts.Dir, FileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	encoder := zap.NewProductionEncoderConfig()
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoder), zapcore.AddSync(file), zap.InfoLevel)
	logger := zap.New(core, zap.ErrorOutput(zapcore.Lock(os.Stderr)))

	return logger, func() {
		_ = logger.Sync()
		_ = file.Close()
	}, nil
}
