package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/engram-dev/engram/internal/store"
)

var (
	createPriority int
	createLabels   string
	createDesc     string
)

var createCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a new item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		b, err := openBackend(ctx, rootDir, false, noDaemon)
		if err != nil {
			return err
		}

		var labels []string
		if createLabels != "" {
			labels = strings.Split(createLabels, ",")
		}

		it, err := b.Create(store.CreateInput{
			Title:       args[0],
			Priority:    createPriority,
			Labels:      labels,
			Description: createDesc,
		})
		if err != nil {
			return err
		}
		printItem(it)
		return nil
	},
}

func init() {
	createCmd.Flags().IntVarP(&createPriority, "priority", "p", 2, "priority (0=highest, 4=lowest)")
	createCmd.Flags().StringVarP(&createLabels, "labels", "l", "", "comma-separated labels")
	createCmd.Flags().StringVarP(&createDesc, "description", "d", "", "item description")
	rootCmd.AddCommand(createCmd)
}
