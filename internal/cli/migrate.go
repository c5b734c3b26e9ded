package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/cuongbtq/botmr-be/internal/app"
	"github.com/cuongbtq/botmr-be/internal/config"
	"github.com/cuongbtq/botmr-be/internal/storage/sqlstore"
	"github.com/cuongbtq/botmr-be/shared/database"
	"github.com/spf13/cobra"
)

func NewMigrateCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), deps, func(ctx context.Context, client *database.Client) error {
				if err := sqlstore.Migrate(ctx, client.GetDB().DB, client.Driver(), deps.Logger); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), deps, func(ctx context.Context, client *database.Client) error {
				if err := sqlstore.Rollback(ctx, client.GetDB().DB, client.Driver(), deps.Logger); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Rolled back one migration")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), deps, func(ctx context.Context, client *database.Client) error {
				infos, err := sqlstore.Status(ctx, client.GetDB().DB, client.Driver())
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "VERSION\tSTATE\tAPPLIED AT\tFILE")
				for _, info := range infos {
					state, at := "pending", "-"
					if info.Applied {
						state = "applied"
						at = info.AppliedAt.UTC().Format("2006-01-02 15:04:05")
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", info.Version, state, at, info.Path)
				}
				return w.Flush()
			})
		},
	})

	return cmd
}

func withDatabase(ctx context.Context, deps *Dependencies, fn func(context.Context, *database.Client) error) error {
	if strings.ToLower(deps.Config.Database.Driver) == config.DriverMemory {
		return fmt.Errorf("migrations need a SQL database; driver is %q", deps.Config.Database.Driver)
	}

	client, err := app.OpenDatabase(&deps.Config.Database, deps.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer client.Close()

	return fn(ctx, client)
}
