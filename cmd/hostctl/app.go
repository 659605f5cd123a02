package main

import (
	"context"
	"fmt"
	"io"

	"github.com/lukaszraczylo/hostctl/internal/config"
	"github.com/lukaszraczylo/hostctl/internal/hosts"
	"github.com/lukaszraczylo/hostctl/internal/logging"
	"github.com/lukaszraczylo/hostctl/internal/manager"
	"github.com/lukaszraczylo/hostctl/internal/store"
)

// globalOptions holds the persistent flags.
type globalOptions struct {
	configPath string
	dbPath     string
	hostsPath  string
	logLevel   string
}

// app lazily builds the components a command needs.
type app struct {
	opts      globalOptions
	logOutput io.Writer

	cfg     *config.Config
	log     *logging.Logger
	applier *hosts.Applier
	store   *store.Store
	mgr     *manager.Manager
}

// loadConfig reads the settings file and applies flag overrides.
func (a *app) loadConfig() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}

	cm := config.NewManager(a.opts.configPath)
	if err := cm.Load(); err != nil {
		return nil, err
	}

	cfg := cm.Get()
	if a.opts.dbPath != "" {
		cfg.Database = config.ExpandHome(a.opts.dbPath)
	}
	if a.opts.hostsPath != "" {
		cfg.HostsPath = config.ExpandHome(a.opts.hostsPath)
	}
	if a.opts.logLevel != "" {
		cfg.Log.Level = a.opts.logLevel
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	a.cfg = cfg
	return cfg, nil
}

func (a *app) logger() (*logging.Logger, error) {
	if a.log != nil {
		return a.log, nil
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	a.log = logging.New(logging.Options{
		Level:      level,
		Console:    a.logOutput,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	return a.log, nil
}

// hostsApplier builds the applier for the configured hosts file.
func (a *app) hostsApplier() (*hosts.Applier, error) {
	if a.applier != nil {
		return a.applier, nil
	}

	log, err := a.logger()
	if err != nil {
		return nil, err
	}
	cfg := a.cfg

	opts := hosts.ApplierOptions{
		HostsPath: cfg.HostsPath,
		Atomic:    cfg.AtomicWrite,
		Flusher:   hosts.NewDNSFlusher(cfg.FlushMethod),
		Logger:    log.With().Str("component", "hosts").Logger(),
	}
	if cfg.Backup.Enabled {
		opts.BackupDir = cfg.Backup.Dir
		opts.KeepBackups = cfg.Backup.Keep
	}

	a.applier = hosts.NewApplier(opts)
	return a.applier, nil
}

// manager opens the store and builds the profile manager.
func (a *app) manager(ctx context.Context) (*manager.Manager, error) {
	if a.mgr != nil {
		return a.mgr, nil
	}

	applier, err := a.hostsApplier()
	if err != nil {
		return nil, err
	}
	cfg := a.cfg

	tmpl, err := cfg.TemplateText()
	if err != nil {
		return nil, err
	}
	renderer, err := hosts.NewRenderer(hosts.RenderOptions{
		Header:   cfg.Header,
		Preamble: cfg.Preamble,
		Template: tmpl,
	})
	if err != nil {
		return nil, err
	}

	s, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.store = s

	a.log.Debug().Str("database", cfg.Database).Str("hosts", cfg.HostsPath).Msg("store opened")

	a.mgr = manager.New(s, renderer, applier, a.log.With().Str("component", "manager").Logger())
	return a.mgr, nil
}

// backups returns the applier when backups are enabled.
func (a *app) backups() (*hosts.Applier, error) {
	applier, err := a.hostsApplier()
	if err != nil {
		return nil, err
	}
	if !a.cfg.Backup.Enabled {
		return nil, fmt.Errorf("backups are disabled in %s", a.opts.configPath)
	}
	return applier, nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil && a.log != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		}
	}
	if a.log != nil {
		a.log.Close()
	}
}
