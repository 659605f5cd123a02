package hosts

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFlusher struct {
	calls int
	err   error
}

func (f *fakeFlusher) Flush() error {
	f.calls++
	return f.err
}

func writeHosts(t *testing.T, dir, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, "hosts")
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
	require.NoError(t, os.Chmod(path, perm))
	return path
}

func TestApplier_Apply(t *testing.T) {
	for _, atomic := range []bool{false, true} {
		name := "in place"
		if atomic {
			name = "atomic"
		}
		t.Run(name, func(t *testing.T) {
			tmpDir := t.TempDir()
			path := writeHosts(t, tmpDir, "old content\n", 0640)
			flusher := &fakeFlusher{}

			a := NewApplier(ApplierOptions{HostsPath: path, Atomic: atomic, Flusher: flusher, Logger: zerolog.Nop()})
			require.NoError(t, a.Apply("10.0.0.1 a.local\n"))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "10.0.0.1 a.local\n", string(data))

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0640), info.Mode().Perm())
			assert.Equal(t, 1, flusher.calls)
		})
	}
}

func TestApplier_Apply_TargetMissing(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "hosts")

	a := NewApplier(ApplierOptions{HostsPath: path, BackupDir: filepath.Join(tmpDir, "backups")})
	err := a.Apply("anything\n")

	assert.ErrorIs(t, err, ErrTargetMissing)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestApplier_Apply_FlushFailureIgnored(t *testing.T) {
	path := writeHosts(t, t.TempDir(), "", 0644)
	flusher := &fakeFlusher{err: errors.New("resolver gone")}

	a := NewApplier(ApplierOptions{HostsPath: path, Flusher: flusher})
	assert.NoError(t, a.Apply("1.2.3.4 x\n"))
	assert.Equal(t, 1, flusher.calls)
}

func TestApplier_Apply_CreatesBackup(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeHosts(t, tmpDir, "previous\n", 0644)
	backupDir := filepath.Join(tmpDir, "backups")

	a := NewApplier(ApplierOptions{HostsPath: path, BackupDir: backupDir})
	require.NoError(t, a.Apply("next\n"))

	backups, err := a.ListBackups()
	require.NoError(t, err)
	require.Len(t, backups, 1)

	data, err := os.ReadFile(filepath.Join(backupDir, backups[0].Name))
	require.NoError(t, err)
	assert.Equal(t, "previous\n", string(data))
}

func TestApplier_DryRun(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeHosts(t, tmpDir, "untouched\n", 0644)
	a := NewApplier(ApplierOptions{HostsPath: path})

	t.Run("content with newline", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, a.DryRun(&buf, "1.1.1.1 one\n"))
		assert.Equal(t, "1.1.1.1 one\n", buf.String())
	})

	t.Run("adds trailing newline", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, a.DryRun(&buf, "1.1.1.1 one"))
		assert.Equal(t, "1.1.1.1 one\n", buf.String())
	})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "untouched\n", string(data))
}

func TestApplier_DryRun_WorksWithoutTarget(t *testing.T) {
	a := NewApplier(ApplierOptions{HostsPath: filepath.Join(t.TempDir(), "missing")})

	var buf bytes.Buffer
	require.NoError(t, a.DryRun(&buf, ""))
	assert.Equal(t, "\n", buf.String())
}

func TestApplier_Current(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeHosts(t, tmpDir, "current\n", 0644)

	content, err := NewApplier(ApplierOptions{HostsPath: path}).Current()
	require.NoError(t, err)
	assert.Equal(t, "current\n", content)

	_, err = NewApplier(ApplierOptions{HostsPath: filepath.Join(tmpDir, "nope")}).Current()
	assert.ErrorIs(t, err, ErrTargetMissing)
}

func TestApplier_CheckWritable(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeHosts(t, tmpDir, "", 0644)

	assert.NoError(t, NewApplier(ApplierOptions{HostsPath: path}).CheckWritable())

	err := NewApplier(ApplierOptions{HostsPath: filepath.Join(tmpDir, "nope")}).CheckWritable()
	assert.ErrorIs(t, err, ErrTargetMissing)
}

func TestApplier_Apply_NotWritable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can write read-only files")
	}

	tmpDir := t.TempDir()
	path := writeHosts(t, tmpDir, "original\n", 0444)
	backupDir := filepath.Join(tmpDir, "backups")

	a := NewApplier(ApplierOptions{HostsPath: path, BackupDir: backupDir})
	err := a.Apply("new\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "try sudo")
	assert.ErrorIs(t, a.CheckWritable(), os.ErrPermission)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "original\n", string(data))
	assert.NoDirExists(t, backupDir)
}

func TestApplier_Apply_Directory(t *testing.T) {
	tmpDir := t.TempDir()
	backupDir := filepath.Join(tmpDir, "backups")

	err := NewApplier(ApplierOptions{HostsPath: tmpDir, BackupDir: backupDir}).Apply("new\n")
	assert.ErrorContains(t, err, "is a directory")
	assert.NoDirExists(t, backupDir)
}

func TestNewApplier_Defaults(t *testing.T) {
	a := NewApplier(ApplierOptions{})
	assert.Equal(t, DefaultPath, a.Path())
	assert.Equal(t, DefaultKeepBackups, a.keepBackups)
}
