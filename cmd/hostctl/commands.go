package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/lukaszraczylo/hostctl/internal/config"
	"github.com/lukaszraczylo/hostctl/internal/release"
	"github.com/lukaszraczylo/hostctl/internal/tui"
	"github.com/lukaszraczylo/hostctl/internal/watch"
)

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "hostctl",
		Short:         "hostctl manages named profiles of hosts file entries",
		Long:          "hostctl keeps named profiles of host to address mappings and renders the selected one into the system hosts file.\nRun without a command to open the interactive browser.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager(cmd.Context())
			if err != nil {
				return err
			}
			var backups tui.Backups
			if a.cfg.Backup.Enabled {
				backups = a.applier
			}
			return tui.Run(cmd.Context(), mgr, backups)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.configPath, "config", config.DefaultConfigPath(), "path to the settings file")
	flags.StringVar(&a.opts.dbPath, "db", "", "path to the profile database (overrides settings)")
	flags.StringVar(&a.opts.hostsPath, "hosts-file", "", "path to the hosts file (overrides settings)")
	flags.StringVar(&a.opts.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	root.AddGroup(
		&cobra.Group{ID: "entries", Title: "Entry Commands:"},
		&cobra.Group{ID: "hosts", Title: "Hosts File Commands:"},
		&cobra.Group{ID: "admin", Title: "Administration Commands:"},
	)

	root.AddCommand(
		newAddCommand(a),
		newRemoveCommand(a),
		newUpdateCommand(a),
		newListCommand(a),
		newApplyCommand(a),
		newCurrentCommand(a),
		newTestCommand(a),
		newProfileCommand(a),
		newBackupCommand(a),
		newConfigCommand(a),
		newWatchCommand(a),
		newVersionCommand(a),
	)

	return root
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func profileFlag(cmd *cobra.Command, target *string, usage string) {
	cmd.Flags().StringVarP(target, "profile", "p", "", usage)
}

func newAddCommand(a *app) *cobra.Command {
	var profile string
	cmd := &cobra.Command{
		Use:     "add <host> <address>",
		Short:   "Add or replace an entry in the active profile",
		Args:    exactArgs(2),
		GroupID: "entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager(cmd.Context())
			if err != nil {
				return err
			}
			resolved, err := mgr.AddEntry(cmd.Context(), profile, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %s → %s in profile %s\n", args[0], args[1], resolved)
			return nil
		},
	}
	profileFlag(cmd, &profile, "profile to modify instead of the active one")
	return cmd
}

func newRemoveCommand(a *app) *cobra.Command {
	var profile string
	cmd := &cobra.Command{
		Use:     "remove <host>",
		Aliases: []string{"rm"},
		Short:   "Remove an entry from the active profile",
		Args:    exactArgs(1),
		GroupID: "entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager(cmd.Context())
			if err != nil {
				return err
			}
			resolved, err := mgr.RemoveEntry(cmd.Context(), profile, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %s from profile %s\n", args[0], resolved)
			return nil
		},
	}
	profileFlag(cmd, &profile, "profile to modify instead of the active one")
	return cmd
}

func newUpdateCommand(a *app) *cobra.Command {
	var profile string
	cmd := &cobra.Command{
		Use:     "update <host> <address>",
		Short:   "Change the address of an existing entry",
		Args:    exactArgs(2),
		GroupID: "entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager(cmd.Context())
			if err != nil {
				return err
			}
			resolved, err := mgr.UpdateEntry(cmd.Context(), profile, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated %s → %s in profile %s\n", args[0], args[1], resolved)
			return nil
		},
	}
	profileFlag(cmd, &profile, "profile to modify instead of the active one")
	return cmd
}

func newListCommand(a *app) *cobra.Command {
	var profile string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the entries of the active profile",
		Args:    exactArgs(0),
		GroupID: "entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager(cmd.Context())
			if err != nil {
				return err
			}
			resolved, entries, err := mgr.Entries(cmd.Context(), profile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No entries in profile %s.\n", resolved)
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "HOST\tADDRESS")
			fmt.Fprintln(w, "----\t-------")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\n", e.Host, e.Address)
			}
			return w.Flush()
		},
	}
	profileFlag(cmd, &profile, "profile to list instead of the active one")
	return cmd
}

func newApplyCommand(a *app) *cobra.Command {
	var profile string
	cmd := &cobra.Command{
		Use:     "apply",
		Short:   "Write the active profile to the hosts file",
		Args:    exactArgs(0),
		GroupID: "hosts",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager(cmd.Context())
			if err != nil {
				return err
			}
			resolved, err := mgr.Apply(cmd.Context(), profile)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Applied profile %s to %s\n", resolved, a.applier.Path())
			return nil
		},
	}
	profileFlag(cmd, &profile, "profile to apply instead of the active one")
	return cmd
}

func newCurrentCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "current",
		Short:   "Print the present content of the hosts file",
		Args:    exactArgs(0),
		GroupID: "hosts",
		RunE: func(cmd *cobra.Command, args []string) error {
			applier, err := a.hostsApplier()
			if err != nil {
				return err
			}
			content, err := applier.Current()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), content)
			return nil
		},
	}
}

func newTestCommand(a *app) *cobra.Command {
	var profile string
	cmd := &cobra.Command{
		Use:     "test",
		Short:   "Print what apply would write without touching the hosts file",
		Args:    exactArgs(0),
		GroupID: "hosts",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := a.manager(cmd.Context())
			if err != nil {
				return err
			}
			_, err = mgr.Test(cmd.Context(), profile, cmd.OutOrStdout())
			return err
		},
	}
	profileFlag(cmd, &profile, "profile to render instead of the active one")
	return cmd
}

func newVersionCommand(a *app) *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:     "version",
		Short:   "Show version",
		Args:    exactArgs(0),
		GroupID: "admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "hostctl version %s\n", appVersion)
			if !check {
				return nil
			}
			// Installs the slog bridge the release checker logs through.
			if _, err := a.logger(); err != nil {
				return err
			}

			rel, newer, err := release.NewChecker("", appVersion).Latest(cmd.Context())
			if err != nil {
				return err
			}
			if !newer {
				fmt.Fprintln(out, "You are running the latest version.")
				return nil
			}
			fmt.Fprintf(out, "Update available: v%s\nDownload: %s\n", rel.Version(), rel.URL)
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "check for a newer release")
	return cmd
}

func newWatchCommand(a *app) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:     "watch",
		Short:   "Re-apply the active profile whenever the database changes",
		Args:    exactArgs(0),
		GroupID: "hosts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mgr, err := a.manager(ctx)
			if err != nil {
				return err
			}

			lock := flock.New(a.cfg.Database + ".watch.lock")
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("failed to acquire watch lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another watcher is already running for %s", a.cfg.Database)
			}
			defer lock.Unlock()

			sync := func() error {
				profile, changed, err := mgr.Sync(ctx, "")
				if err != nil {
					return err
				}
				if changed {
					fmt.Fprintf(cmd.OutOrStdout(), "✓ Applied profile %s\n", profile)
				}
				return nil
			}

			if err := sync(); err != nil {
				return err
			}
			// Later changes must be writable even if the first sync wrote nothing.
			if err := a.applier.CheckWritable(); err != nil {
				return err
			}

			log := a.log.With().Str("component", "watch").Logger()
			w := watch.New(a.cfg.Database, debounce, func(context.Context) error { return sync() }, log)
			return w.Run(ctx)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "delay before re-applying after a change")
	return cmd
}
