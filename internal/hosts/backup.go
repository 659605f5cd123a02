package hosts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultKeepBackups is the number of backups kept when none is configured.
const DefaultKeepBackups = 10

const (
	backupPrefix = "hosts."
	backupSuffix = ".bak"
	backupLayout = "20060102-150405.000000000"
)

// BackupInfo holds information about a backup file.
type BackupInfo struct {
	Name    string
	ModTime time.Time
	Size    int64
}

// CreateBackup copies the current hosts file into the backup directory and
// prunes old copies. It returns the backup file name.
func (a *Applier) CreateBackup() (string, error) {
	if a.backupDir == "" {
		return "", fmt.Errorf("backups are disabled")
	}
	if err := os.MkdirAll(a.backupDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	content, err := os.ReadFile(a.hostsPath)
	if err != nil {
		return "", fmt.Errorf("failed to read hosts file: %w", err)
	}

	name := backupPrefix + time.Now().Format(backupLayout) + backupSuffix
	if err := os.WriteFile(filepath.Join(a.backupDir, name), content, 0644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	if err := a.pruneBackups(); err != nil {
		a.log.Warn().Err(err).Msg("failed to prune backups")
	}

	a.log.Debug().Str("backup", name).Msg("hosts file backed up")
	return name, nil
}

func (a *Applier) backupNames() ([]string, error) {
	entries, err := os.ReadDir(a.backupDir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && isBackupName(entry.Name()) {
			names = append(names, entry.Name())
		}
	}

	// Timestamped names sort chronologically; newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

func (a *Applier) pruneBackups() error {
	names, err := a.backupNames()
	if err != nil {
		return err
	}

	for i := a.keepBackups; i < len(names); i++ {
		if err := os.Remove(filepath.Join(a.backupDir, names[i])); err != nil {
			return err
		}
	}
	return nil
}

// ListBackups returns the available backups, newest first.
func (a *Applier) ListBackups() ([]BackupInfo, error) {
	if a.backupDir == "" {
		return nil, nil
	}

	names, err := a.backupNames()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	backups := make([]BackupInfo, 0, len(names))
	for _, name := range names {
		info, err := os.Stat(filepath.Join(a.backupDir, name))
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Name:    name,
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}
	return backups, nil
}

// ReadBackup returns the content of the named backup.
func (a *Applier) ReadBackup(name string) (string, error) {
	if a.backupDir == "" {
		return "", fmt.Errorf("backups are disabled")
	}
	if filepath.Base(name) != name || !isBackupName(name) {
		return "", fmt.Errorf("invalid backup name: %s", name)
	}

	content, err := os.ReadFile(filepath.Join(a.backupDir, name))
	if err != nil {
		return "", fmt.Errorf("failed to read backup: %w", err)
	}
	return string(content), nil
}

// RestoreBackup writes the named backup back to the hosts file, backing up
// the current content first.
func (a *Applier) RestoreBackup(name string) error {
	content, err := a.ReadBackup(name)
	if err != nil {
		return err
	}

	if err := a.Apply(content); err != nil {
		return fmt.Errorf("failed to restore backup: %w", err)
	}
	return nil
}

func isBackupName(name string) bool {
	return strings.HasPrefix(name, backupPrefix) && strings.HasSuffix(name, backupSuffix)
}
