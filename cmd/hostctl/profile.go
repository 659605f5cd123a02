package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/lukaszraczylo/hostctl/internal/manager"
	"github.com/lukaszraczylo/hostctl/internal/tui"
)

func newProfileCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profile",
		Short:   "Create, remove, select and list profiles",
		GroupID: "entries",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <name>",
			Short: "Create a profile",
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				mgr, err := a.manager(cmd.Context())
				if err != nil {
					return err
				}
				if err := mgr.CreateProfile(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Created profile %s\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:     "remove <name>",
			Aliases: []string{"rm"},
			Short:   "Delete a profile and its entries",
			Args:    exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				mgr, err := a.manager(cmd.Context())
				if err != nil {
					return err
				}
				if err := mgr.DeleteProfile(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed profile %s\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "use <name>",
			Short: "Make a profile the active one",
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				mgr, err := a.manager(cmd.Context())
				if err != nil {
					return err
				}
				if err := mgr.UseProfile(cmd.Context(), args[0]); err != nil {
					return err
				}

				profiles, err := mgr.Profiles(cmd.Context())
				if err != nil {
					return err
				}
				if !lo.ContainsBy(profiles, func(p manager.Profile) bool { return p.Name == args[0] }) {
					a.log.Warn().Str("profile", args[0]).Msg("profile is not registered; apply and test fail until it is created")
				}

				fmt.Fprintf(cmd.OutOrStdout(), "✓ Active profile is now %s\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List profiles, marking the active one",
			Args:    exactArgs(0),
			RunE: func(cmd *cobra.Command, args []string) error {
				mgr, err := a.manager(cmd.Context())
				if err != nil {
					return err
				}
				profiles, err := mgr.Profiles(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(profiles) == 0 {
					fmt.Fprintln(out, "No profiles.")
					return nil
				}

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tENTRIES\tCREATED\t")
				fmt.Fprintln(w, "----\t-------\t-------\t")
				for _, p := range profiles {
					marker := ""
					if p.Active {
						marker = tui.ActiveStyle.Render("(active)")
					}
					fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", p.Name, p.EntryCount, p.CreatedAt.Local().Format("2006-01-02 15:04"), marker)
				}
				return w.Flush()
			},
		},
	)

	return cmd
}
