package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newBackupCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "backup",
		Short:   "List and restore hosts file backups",
		GroupID: "hosts",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List backups, newest first",
			Args:    exactArgs(0),
			RunE: func(cmd *cobra.Command, args []string) error {
				applier, err := a.backups()
				if err != nil {
					return err
				}
				backups, err := applier.ListBackups()
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(backups) == 0 {
					fmt.Fprintln(out, "No backups.")
					return nil
				}

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tCREATED\tSIZE")
				for _, b := range backups {
					fmt.Fprintf(w, "%s\t%s\t%d\n", b.Name, b.ModTime.Local().Format("2006-01-02 15:04:05"), b.Size)
				}
				return w.Flush()
			},
		},
		&cobra.Command{
			Use:   "restore <name>",
			Short: "Replace the hosts file with a backup",
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				applier, err := a.backups()
				if err != nil {
					return err
				}
				if err := applier.RestoreBackup(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Restored %s from %s\n", applier.Path(), args[0])
				return nil
			},
		},
	)

	return cmd
}
