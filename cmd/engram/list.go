package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/engram-dev/engram/internal/types"
)

var listStatus string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List items, optionally filtered by status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		b, err := openBackend(ctx, rootDir, true, noDaemon)
		if err != nil {
			return err
		}

		filter := types.WorkFilter{}
		if listStatus != "" {
			filter.Status = types.Status(listStatus)
		}

		items, err := b.List(filter)
		if err != nil {
			return err
		}
		printItems(items)
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status (open, in_progress, blocked, closed)")
	rootCmd.AddCommand(listCmd)
}
