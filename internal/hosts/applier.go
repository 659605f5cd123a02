package hosts

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	atomicfile "github.com/natefinch/atomic"
	"github.com/rs/zerolog"
)

// DefaultPath is the path to the system hosts file.
const DefaultPath = "/etc/hosts"

// ErrTargetMissing is returned when the hosts file does not exist.
var ErrTargetMissing = errors.New("hosts file does not exist")

// Flusher clears a resolver cache after the hosts file changes.
type Flusher interface {
	Flush() error
}

// ApplierOptions configures an Applier.
type ApplierOptions struct {
	HostsPath string
	// BackupDir enables backups of the previous content when non-empty.
	BackupDir   string
	KeepBackups int
	// Atomic writes through a temporary file and rename instead of
	// truncating the target in place.
	Atomic  bool
	Flusher Flusher
	Logger  zerolog.Logger
}

// Applier commits or previews rendered hosts content.
type Applier struct {
	hostsPath   string
	backupDir   string
	keepBackups int
	atomic      bool
	flusher     Flusher
	log         zerolog.Logger
}

// NewApplier creates an applier.
func NewApplier(opts ApplierOptions) *Applier {
	path := opts.HostsPath
	if path == "" {
		path = DefaultPath
	}
	keep := opts.KeepBackups
	if keep <= 0 {
		keep = DefaultKeepBackups
	}
	return &Applier{
		hostsPath:   path,
		backupDir:   opts.BackupDir,
		keepBackups: keep,
		atomic:      opts.Atomic,
		flusher:     opts.Flusher,
		log:         opts.Logger,
	}
}

// Path returns the target hosts file path.
func (a *Applier) Path() string {
	return a.hostsPath
}

// Apply replaces the whole hosts file with content. The file must already
// exist and be writable by the current user.
func (a *Applier) Apply(content string) error {
	info, err := a.checkWritable()
	if err != nil {
		return err
	}

	if a.backupDir != "" {
		if _, err := a.CreateBackup(); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
	}

	if err := a.write(content, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write hosts file: %w", err)
	}

	a.log.Info().
		Str("path", a.hostsPath).
		Int("bytes", len(content)).
		Bool("atomic", a.atomic).
		Msg("hosts file written")

	a.flush()
	return nil
}

// CheckWritable reports whether the hosts file exists and the current user
// may write it.
func (a *Applier) CheckWritable() error {
	_, err := a.checkWritable()
	return err
}

func (a *Applier) checkWritable() (fs.FileInfo, error) {
	info, err := a.stat()
	if err != nil {
		return nil, err
	}
	if err := writable(a.hostsPath); err != nil {
		return nil, fmt.Errorf("hosts file is not writable (try sudo): %s: %w", a.hostsPath, err)
	}
	return info, nil
}

// DryRun writes content to w without touching the hosts file.
func (a *Applier) DryRun(w io.Writer, content string) error {
	if _, err := io.WriteString(w, content); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}
	if !strings.HasSuffix(content, "\n") {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return fmt.Errorf("failed to write preview: %w", err)
		}
	}
	return nil
}

// Current returns the present content of the hosts file.
func (a *Applier) Current() (string, error) {
	data, err := os.ReadFile(a.hostsPath)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrTargetMissing, a.hostsPath)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read hosts file: %w", err)
	}
	return string(data), nil
}

func (a *Applier) stat() (fs.FileInfo, error) {
	info, err := os.Stat(a.hostsPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrTargetMissing, a.hostsPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat hosts file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("hosts path is a directory: %s", a.hostsPath)
	}
	return info, nil
}

func (a *Applier) write(content string, perm fs.FileMode) error {
	if a.atomic {
		if err := atomicfile.WriteFile(a.hostsPath, strings.NewReader(content)); err != nil {
			return err
		}
		return os.Chmod(a.hostsPath, perm)
	}
	// Not crash safe: a failure mid-write leaves a truncated file.
	return os.WriteFile(a.hostsPath, []byte(content), perm)
}

func (a *Applier) flush() {
	if a.flusher == nil {
		return
	}
	if err := a.flusher.Flush(); err != nil {
		a.log.Warn().Err(err).Msg("failed to flush DNS cache")
	}
}
