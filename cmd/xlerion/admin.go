package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"xlerion.co/guide/internal/core"
	"xlerion.co/guide/internal/store"
)

// --- admin ---

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage administrator accounts",
}

var adminGrantCmd = &cobra.Command{
	Use:   "grant <user-id>",
	Short: "Give an account the admin role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, st store.Store) error {
			return setRole(ctx, st, cmd.OutOrStdout(), args[0], store.RoleAdmin)
		})
	},
}

var adminRevokeCmd = &cobra.Command{
	Use:   "revoke <user-id>",
	Short: "Take the admin role away from an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, st store.Store) error {
			return setRole(ctx, st, cmd.OutOrStdout(), args[0], store.RoleUser)
		})
	},
}

var adminListCmd = &cobra.Command{
	Use:   "list",
	Short: "List administrator accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, st store.Store) error {
			return listAdmins(ctx, st, cmd.OutOrStdout())
		})
	},
}

// --- sources ---

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Inspect data sources",
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List data sources with masked keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, st store.Store) error {
			return listSources(ctx, st, cmd.OutOrStdout())
		})
	},
}

func init() {
	adminCmd.AddCommand(adminGrantCmd, adminRevokeCmd, adminListCmd)
	sourcesCmd.AddCommand(sourcesListCmd)
}

func withStore(cmd *cobra.Command, fn func(context.Context, store.Store) error) error {
	cfg, err := loadStoreConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(cmd.Context(), st)
}

func setRole(ctx context.Context, st store.Store, out io.Writer, userID string, role store.Role) error {
	if err := st.SetRole(ctx, userID, role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no account with id %q", userID)
		}
		return err
	}
	fmt.Fprintf(out, "%s is now %s\n", userID, role)
	return nil
}

func listAdmins(ctx context.Context, st store.Store, out io.Writer) error {
	admins, err := st.ListAdmins(ctx)
	if err != nil {
		return err
	}
	if len(admins) == 0 {
		fmt.Fprintln(out, "no admins")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tCREATED")
	for _, acc := range admins {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", acc.ID, acc.Email, acc.CreatedAt.Format("2006-01-02"))
	}
	return tw.Flush()
}

func listSources(ctx context.Context, st store.Store, out io.Writer) error {
	sources, err := st.ListSources(ctx)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		fmt.Fprintln(out, "no sources")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tURL\tKEY")
	for _, src := range sources {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", src.ID, src.Name, src.URL, core.MaskAPIKey(src.APIKey))
	}
	return tw.Flush()
}
