package hosts

import (
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukaszraczylo/hostctl/internal/config"
)

type commandLog struct {
	calls []string
	fail  map[string]bool
}

func (c *commandLog) run(name string, args ...string) error {
	c.calls = append(c.calls, strings.Join(append([]string{name}, args...), " "))
	if c.fail[name] {
		return errors.New("exit status 1")
	}
	return nil
}

func newFakeFlusher(method config.FlushMethod, goos string, log *commandLog, available ...string) *DNSFlusher {
	f := NewDNSFlusher(method)
	f.goos = goos
	f.run = log.run
	f.look = func(name string) (string, error) {
		for _, a := range available {
			if a == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", exec.ErrNotFound
	}
	return f
}

func TestDNSFlusher_None(t *testing.T) {
	log := &commandLog{}
	for _, method := range []config.FlushMethod{config.FlushMethodNone, ""} {
		require.NoError(t, newFakeFlusher(method, "linux", log).Flush())
	}
	assert.Empty(t, log.calls)
}

func TestDNSFlusher_DetectMethod(t *testing.T) {
	tests := []struct {
		name      string
		goos      string
		available []string
		expected  config.FlushMethod
	}{
		{"darwin", "darwin", nil, config.FlushMethodBoth},
		{"linux resolvectl", "linux", []string{"resolvectl"}, config.FlushMethodSystemd},
		{"linux systemd-resolve", "linux", []string{"systemd-resolve"}, config.FlushMethodSystemd},
		{"linux nscd", "linux", []string{"nscd"}, config.FlushMethodNscd},
		{"linux nothing", "linux", nil, config.FlushMethodAuto},
		{"other", "plan9", nil, config.FlushMethodAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeFlusher(config.FlushMethodAuto, tt.goos, &commandLog{}, tt.available...)
			assert.Equal(t, tt.expected, f.detectMethod())
		})
	}
}

func TestDNSFlusher_Linux(t *testing.T) {
	t.Run("systemd falls back to systemd-resolve", func(t *testing.T) {
		log := &commandLog{fail: map[string]bool{"resolvectl": true}}
		require.NoError(t, newFakeFlusher(config.FlushMethodSystemd, "linux", log).Flush())
		assert.Equal(t, []string{"resolvectl flush-caches", "systemd-resolve --flush-caches"}, log.calls)
	})

	t.Run("systemd fails", func(t *testing.T) {
		log := &commandLog{fail: map[string]bool{"resolvectl": true, "systemd-resolve": true}}
		assert.Error(t, newFakeFlusher(config.FlushMethodSystemd, "linux", log).Flush())
	})

	t.Run("nscd", func(t *testing.T) {
		log := &commandLog{}
		require.NoError(t, newFakeFlusher(config.FlushMethodNscd, "linux", log).Flush())
		assert.Equal(t, []string{"nscd -i hosts"}, log.calls)
	})

	t.Run("darwin method rejected", func(t *testing.T) {
		log := &commandLog{}
		assert.Error(t, newFakeFlusher(config.FlushMethodKillall, "linux", log).Flush())
		assert.Empty(t, log.calls)
	})

	t.Run("auto without tools succeeds", func(t *testing.T) {
		log := &commandLog{fail: map[string]bool{"resolvectl": true, "systemd-resolve": true, "nscd": true}}
		assert.NoError(t, newFakeFlusher(config.FlushMethodAuto, "linux", log).Flush())
	})
}

func TestDNSFlusher_Darwin(t *testing.T) {
	t.Run("both tolerates one failure", func(t *testing.T) {
		log := &commandLog{fail: map[string]bool{"killall": true}}
		require.NoError(t, newFakeFlusher(config.FlushMethodBoth, "darwin", log).Flush())
		assert.Len(t, log.calls, 2)
	})

	t.Run("both fails when all fail", func(t *testing.T) {
		log := &commandLog{fail: map[string]bool{"killall": true, "dscacheutil": true}}
		assert.Error(t, newFakeFlusher(config.FlushMethodBoth, "darwin", log).Flush())
	})

	t.Run("dscacheutil", func(t *testing.T) {
		log := &commandLog{}
		require.NoError(t, newFakeFlusher(config.FlushMethodDscacheutil, "darwin", log).Flush())
		assert.Equal(t, []string{"dscacheutil -flushcache"}, log.calls)
	})
}

func TestDNSFlusher_UnsupportedOS(t *testing.T) {
	err := newFakeFlusher(config.FlushMethodSystemd, "windows", &commandLog{}).Flush()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported operating system")
}
