package hosts

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/lukaszraczylo/hostctl/internal/config"
)

// DNSFlusher flushes the system resolver cache with external utilities.
type DNSFlusher struct {
	method config.FlushMethod
	goos   string
	run    func(name string, args ...string) error
	look   func(name string) (string, error)
}

// NewDNSFlusher creates a flusher for method.
func NewDNSFlusher(method config.FlushMethod) *DNSFlusher {
	return &DNSFlusher{
		method: method,
		goos:   runtime.GOOS,
		run:    runCommand,
		look:   exec.LookPath,
	}
}

// Flush flushes the DNS cache using the configured method.
func (f *DNSFlusher) Flush() error {
	method := f.method
	if method == config.FlushMethodNone || method == "" {
		return nil
	}
	if method == config.FlushMethodAuto {
		method = f.detectMethod()
	}

	switch f.goos {
	case "darwin":
		return f.flushDarwin(method)
	case "linux":
		return f.flushLinux(method)
	default:
		return fmt.Errorf("unsupported operating system: %s", f.goos)
	}
}

func (f *DNSFlusher) detectMethod() config.FlushMethod {
	switch f.goos {
	case "darwin":
		return config.FlushMethodBoth
	case "linux":
		for _, bin := range []string{"resolvectl", "systemd-resolve"} {
			if _, err := f.look(bin); err == nil {
				return config.FlushMethodSystemd
			}
		}
		if _, err := f.look("nscd"); err == nil {
			return config.FlushMethodNscd
		}
	}
	return config.FlushMethodAuto
}

func (f *DNSFlusher) flushDarwin(method config.FlushMethod) error {
	switch method {
	case config.FlushMethodDscacheutil:
		if err := f.run("dscacheutil", "-flushcache"); err != nil {
			return fmt.Errorf("dscacheutil failed: %w", err)
		}
	case config.FlushMethodKillall:
		if err := f.run("killall", "-HUP", "mDNSResponder"); err != nil {
			return fmt.Errorf("killall mDNSResponder failed: %w", err)
		}
	case config.FlushMethodBoth:
		errA := f.run("dscacheutil", "-flushcache")
		errB := f.run("killall", "-HUP", "mDNSResponder")
		if errA != nil && errB != nil {
			return fmt.Errorf("all DNS flush methods failed: %w", errors.Join(errA, errB))
		}
	default:
		_ = f.run("dscacheutil", "-flushcache")
		_ = f.run("killall", "-HUP", "mDNSResponder")
	}
	return nil
}

func (f *DNSFlusher) flushLinux(method config.FlushMethod) error {
	switch method {
	case config.FlushMethodSystemd:
		if err := f.run("resolvectl", "flush-caches"); err != nil {
			if err := f.run("systemd-resolve", "--flush-caches"); err != nil {
				return fmt.Errorf("systemd DNS flush failed: %w", err)
			}
		}
	case config.FlushMethodNscd:
		if err := f.run("nscd", "-i", "hosts"); err != nil {
			if err := f.run("service", "nscd", "restart"); err != nil {
				return fmt.Errorf("nscd flush failed: %w", err)
			}
		}
	case config.FlushMethodDscacheutil, config.FlushMethodKillall, config.FlushMethodBoth:
		return fmt.Errorf("flush method %s is not available on linux", method)
	default:
		// Without a caching resolver glibc reads the hosts file directly.
		if err := f.run("resolvectl", "flush-caches"); err == nil {
			return nil
		}
		if err := f.run("systemd-resolve", "--flush-caches"); err == nil {
			return nil
		}
		_ = f.run("nscd", "-i", "hosts")
	}
	return nil
}

func runCommand(name string, args ...string) error {
	cmd := exec.Command(name, args...) // #nosec G204 - fixed DNS flush utilities
	return cmd.Run()
}
