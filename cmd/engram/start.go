package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/engram-dev/engram/internal/types"
)

var startCmd = &cobra.Command{
	Use:   "start <id>",
	Short: "Transition an item to in_progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		b, err := openBackend(ctx, rootDir, false, noDaemon)
		if err != nil {
			return err
		}
		it, err := b.SetStatus(args[0], types.StatusInProgress)
		if err != nil {
			return err
		}
		printItem(it)
		return nil
	},
}

var blockCmd = &cobra.Command{
	Use:   "block <id>",
	Short: "Transition an item to blocked",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		b, err := openBackend(ctx, rootDir, false, noDaemon)
		if err != nil {
			return err
		}
		it, err := b.SetStatus(args[0], types.StatusBlocked)
		if err != nil {
			return err
		}
		printItem(it)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd, blockCmd)
}
