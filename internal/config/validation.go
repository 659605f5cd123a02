package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig validates the entire configuration.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return &ValidationError{Field: "config", Message: "config is nil"}
	}

	if strings.TrimSpace(cfg.HostsPath) == "" {
		return &ValidationError{Field: "hostsPath", Message: "hosts file path is required"}
	}

	if strings.TrimSpace(cfg.Database) == "" {
		return &ValidationError{Field: "database", Message: "database path is required"}
	}

	if !ValidFlushMethod(cfg.FlushMethod) {
		return &ValidationError{
			Field:   "flushMethod",
			Message: fmt.Sprintf("invalid flush method: %s", cfg.FlushMethod),
		}
	}

	if err := validateBackup(&cfg.Backup); err != nil {
		return err
	}

	return validateLog(&cfg.Log)
}

func validateBackup(b *Backup) error {
	if !b.Enabled {
		return nil
	}
	if strings.TrimSpace(b.Dir) == "" {
		return &ValidationError{Field: "backup.dir", Message: "backup directory is required when backups are enabled"}
	}
	if b.Keep < 1 {
		return &ValidationError{Field: "backup.keep", Message: fmt.Sprintf("must be at least 1, got %d", b.Keep)}
	}
	return nil
}

func validateLog(l *Log) error {
	if _, err := ParseLevel(l.Level); err != nil {
		return &ValidationError{Field: "log.level", Message: err.Error()}
	}
	if l.MaxSizeMB < 0 {
		return &ValidationError{Field: "log.maxSizeMB", Message: "must not be negative"}
	}
	if l.MaxBackups < 0 {
		return &ValidationError{Field: "log.maxBackups", Message: "must not be negative"}
	}
	return nil
}

// ValidFlushMethod reports whether m is a known flush method. Empty means none.
func ValidFlushMethod(m FlushMethod) bool {
	switch m {
	case FlushMethodNone, FlushMethodAuto, FlushMethodSystemd, FlushMethodNscd,
		FlushMethodDscacheutil, FlushMethodKillall, FlushMethodBoth, "":
		return true
	}
	return false
}

// ParseLevel parses a log level name. Empty means info.
func ParseLevel(level string) (zerolog.Level, error) {
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel, fmt.Errorf("invalid log level: %s", level)
	}
	return lvl, nil
}
