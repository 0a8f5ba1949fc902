package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/engram-dev/engram/internal/cacheindex"
)

var (
	eventKind   string
	eventSource string
	eventTarget string
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Query the event log",
}

var eventListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded events, optionally filtered",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		b, err := openBackend(ctx, rootDir, true, noDaemon)
		if err != nil {
			return err
		}
		events, err := b.Events(cacheindex.EventFilter{
			Kind:       eventKind,
			SourceTask: eventSource,
			TargetTask: eventTarget,
		})
		if err != nil {
			return err
		}
		printEvents(events)
		return nil
	},
}

func init() {
	eventListCmd.Flags().StringVar(&eventKind, "kind", "", "filter by event kind")
	eventListCmd.Flags().StringVar(&eventSource, "source", "", "filter by source item id")
	eventListCmd.Flags().StringVar(&eventTarget, "target", "", "filter by target item id")
	eventCmd.AddCommand(eventListCmd)
	rootCmd.AddCommand(eventCmd)
}
