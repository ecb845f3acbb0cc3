package main

import (
	"context"
	"encoding/json"
	"fmt"

	"bread-daily-service/config"
	"bread-daily-service/services"
	"bread-daily-service/storage"

	"github.com/spf13/cobra"
)

var resetConfirmed bool

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Inspect or reset the saved progress record",
}

var progressShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the progress record as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProgress(cmd.Context(), func(p *services.ProgressStore) error {
			cur := p.Current()
			out, err := json.MarshalIndent(map[string]any{
				"progress":       cur,
				"level_progress": p.Levels().Progress(cur.XP),
				"badges":         services.NewBadgeService(nil, logger).Earned(cur),
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		})
	},
}

var progressResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Erase the saved progress record",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetConfirmed {
			return fmt.Errorf("refusing to reset without --yes")
		}
		return withProgress(cmd.Context(), func(p *services.ProgressStore) error {
			if _, err := p.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "🗑️  Progress reset")
			return nil
		})
	},
}

func init() {
	progressResetCmd.Flags().BoolVar(&resetConfirmed, "yes", false, "confirm the reset")
	progressCmd.AddCommand(progressShowCmd, progressResetCmd)
}

func withProgress(ctx context.Context, fn func(*services.ProgressStore) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(logger)
	if err != nil {
		return err
	}
	kv, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func(kv storage.KVStore) { _ = kv.Close() }(kv)

	return fn(services.NewProgressStore(ctx, kv, services.DefaultLevelResolver(), logger))
}
