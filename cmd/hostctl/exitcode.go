package main

import (
	"errors"
	"strings"

	"github.com/lukaszraczylo/hostctl/internal/config"
	"github.com/lukaszraczylo/hostctl/internal/hosts"
	"github.com/lukaszraczylo/hostctl/internal/manager"
)

// Process exit codes.
const (
	exitOK            = 0
	exitFailure       = 1
	exitNotFound      = 2
	exitTargetMissing = 3
	exitUsage         = 64
)

// usageError marks a malformed command line.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var (
		usageErr    usageError
		inputErr    manager.ValidationError
		settingsErr *config.ValidationError
	)

	switch {
	case errors.Is(err, manager.ErrProfileNotFound), errors.Is(err, manager.ErrEntryNotFound):
		return exitNotFound
	case errors.Is(err, hosts.ErrTargetMissing):
		return exitTargetMissing
	case errors.As(err, &usageErr), errors.As(err, &inputErr), errors.As(err, &settingsErr):
		return exitUsage
	case strings.HasPrefix(err.Error(), "unknown command"):
		// cobra reports unknown subcommands as plain errors.
		return exitUsage
	}
	return exitFailure
}
