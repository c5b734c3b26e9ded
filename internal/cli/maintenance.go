package cli

import (
	"context"
	"fmt"

	"github.com/cuongbtq/botmr-be/internal/app"
	"github.com/cuongbtq/botmr-be/internal/service"
	"github.com/spf13/cobra"
)

func NewCleanupCmd(deps *Dependencies) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete finished recording sessions and their audio",
		Long:  "Deletes stopped and failed recording sessions older than the retention period, together with their uploaded audio chunks.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				days = deps.Config.Recording.RetentionDays
			}
			return withRecordings(cmd.Context(), deps, func(ctx context.Context, recordings *service.RecordingService) error {
				deleted, err := recordings.CleanupOldSessions(ctx, days)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d sessions older than %d days\n", deleted, days)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Retention in days (default: recording.retention_days)")
	return cmd
}

func NewExpireCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "Fail live sessions whose heartbeat timed out",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRecordings(cmd.Context(), deps, func(ctx context.Context, recordings *service.RecordingService) error {
				expired, err := recordings.ExpireStaleSessions(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Expired %d sessions\n", expired)
				return nil
			})
		},
	}
}

func withRecordings(ctx context.Context, deps *Dependencies, fn func(context.Context, *service.RecordingService) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	store, closeStore, err := app.OpenStore(ctx, &deps.Config.Database, deps.Logger)
	if err != nil {
		return err
	}
	defer closeStore()

	audioStore, err := app.OpenAudioStore(ctx, &deps.Config.Audio)
	if err != nil {
		return fmt.Errorf("failed to initialize audio store: %w", err)
	}

	svcs := app.NewServices(app.ServiceDeps{
		Store:     store,
		Audio:     audioStore,
		Recording: deps.Config.Recording,
		Logger:    deps.Logger,
	})
	return fn(ctx, svcs.Recordings)
}
