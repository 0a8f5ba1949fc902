package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var compactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Rewrite the logs to their latest-per-key records and rebuild the cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		b, err := openBackend(ctx, rootDir, false, noDaemon)
		if err != nil {
			return err
		}
		if err := b.Compact(); err != nil {
			return err
		}
		fmt.Println("compacted")
		return nil
	},
}

var vacuumCmd = &cobra.Command{
	Use:   "vacuum",
	Short: "Run VACUUM against the cache database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		b, err := openBackend(ctx, rootDir, false, noDaemon)
		if err != nil {
			return err
		}
		if err := b.Vacuum(); err != nil {
			return err
		}
		fmt.Println("vacuumed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compactCmd, vacuumCmd)
}
