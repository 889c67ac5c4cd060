package slogutil

import (
	"io"
	"log/slog"

	"revue/internal/config"
	"revue/internal/paths"
)

// LoggerFactory builds the file loggers used by the CLI.
// Level precedence: CLI flags > subsystem config > global config.
type LoggerFactory struct {
	dataDir  string
	config   *config.Config
	cliLevel slog.Level // 0 means not set
	closers  []io.Closer
}

// NewLoggerFactory creates a new logger factory. cliLevel is 0 when no flag was given.
func NewLoggerFactory(dataDir string, cfg *config.Config, cliLevel slog.Level) *LoggerFactory {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &LoggerFactory{
		dataDir:  dataDir,
		config:   cfg,
		cliLevel: cliLevel,
	}
}

// StoreLogger logs storage and repository activity to <dataDir>/logs/revue.log.
func (f *LoggerFactory) StoreLogger() *slog.Logger {
	return f.fileLogger(paths.GetStoreLogPath(f.dataDir), "store")
}

// OperatorLogger receives operator alerts at <dataDir>/logs/operator.log.
func (f *LoggerFactory) OperatorLogger() *slog.Logger {
	return f.fileLogger(paths.GetOperatorLogPath(f.dataDir), "operator")
}

// fileLogger never fails: logging problems degrade to a discard logger.
func (f *LoggerFactory) fileLogger(path, subsystem string) *slog.Logger {
	if f.dataDir == "" {
		return NewDiscardLogger()
	}
	if _, err := paths.EnsureLogsDir(f.dataDir); err != nil {
		return NewDiscardLogger()
	}

	level := f.EffectiveLevel(subsystem)
	logger, closer, err := NewFileLoggerWithRotation(path, level, f.config.Logging.MaxSize, f.config.Logging.MaxBackups)
	if err != nil {
		return NewDiscardLogger()
	}

	f.closers = append(f.closers, closer)
	return logger
}

// EffectiveLevel returns the level for a subsystem ("store" or "operator").
func (f *LoggerFactory) EffectiveLevel(subsystem string) slog.Level {
	if f.cliLevel != 0 {
		return f.cliLevel
	}

	var subsystemLevel string
	switch subsystem {
	case "store":
		subsystemLevel = f.config.Logging.Store
	case "operator":
		subsystemLevel = f.config.Logging.Operator
	}
	if subsystemLevel != "" {
		return LevelFromString(subsystemLevel)
	}

	if f.config.Logging.Level != "" {
		return LevelFromString(f.config.Logging.Level)
	}
	return slog.LevelInfo
}

// Close closes all open log files.
func (f *LoggerFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
