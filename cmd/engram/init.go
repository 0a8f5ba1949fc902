package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/engram-dev/engram/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new store at --root",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		s, err := store.Open(ctx, rootDir)
		if err != nil {
			return err
		}
		defer s.Close()
		fmt.Printf("initialized engram store at %s\n", s.Layout().Dir())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
