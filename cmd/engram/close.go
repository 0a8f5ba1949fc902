package main

import (
	"context"

	"github.com/spf13/cobra"
)

var closeReason string

var closeCmd = &cobra.Command{
	Use:   "close <id>",
	Short: "Close an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		b, err := openBackend(ctx, rootDir, false, noDaemon)
		if err != nil {
			return err
		}
		it, err := b.Close(args[0], closeReason)
		if err != nil {
			return err
		}
		printItem(it)
		return nil
	},
}

func init() {
	closeCmd.Flags().StringVarP(&closeReason, "reason", "r", "", "close reason")
	rootCmd.AddCommand(closeCmd)
}
