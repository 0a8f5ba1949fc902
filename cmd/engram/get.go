package main

import (
	"context"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a single item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		b, err := openBackend(ctx, rootDir, true, noDaemon)
		if err != nil {
			return err
		}
		it, err := b.Get(args[0])
		if err != nil {
			return err
		}
		printItem(it)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
