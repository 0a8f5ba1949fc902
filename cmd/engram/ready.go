package main

import (
	"context"

	"github.com/spf13/cobra"
)

var readyCmd = &cobra.Command{
	Use:   "ready",
	Short: "Show open items with no unmet blockers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		b, err := openBackend(ctx, rootDir, true, noDaemon)
		if err != nil {
			return err
		}
		items, err := b.Ready()
		if err != nil {
			return err
		}
		printItems(items)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(readyCmd)
}
