// Package logger builds the zap logger shared by every component.
package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Config selects where logs go and how verbose they are.
type Config struct {
	Level  string `mapstructure:"level"`
	Path   string `mapstructure:"path"`   // log file
	Stderr bool   `mapstructure:"stderr"` // log to stderr instead of Path
}

// DefaultConfig logs at info level to gesturesnake.log in dir.
func DefaultConfig(dir string) Config {
	return Config{
		Level: "info",
		Path:  filepath.Join(dir, "gesturesnake.log"),
	}
}

// New builds a production zap logger writing JSON lines to the configured
// destination.
func New(cfg Config) (*zap.SugaredLogger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = level
	zc.Sampling = nil

	out := "stderr"
	if !cfg.Stderr && cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("log directory: %w", err)
		}
		out = cfg.Path
	}
	zc.OutputPaths = []string{out}
	zc.ErrorOutputPaths = []string{out}

	l, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l.Sugar(), nil
}

// Nop returns a logger that discards everything.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
