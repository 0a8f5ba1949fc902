package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/engram-dev/engram/internal/types"
)

func printItem(it *types.Item) {
	if jsonOut {
		printJSON(it)
		return
	}
	fmt.Printf("%s  [%s]  p%d  %s\n", it.ID, it.Status, it.Priority, it.Title)
}

func printItems(items []*types.Item) {
	if jsonOut {
		printJSON(items)
		return
	}
	for _, it := range items {
		printItem(it)
	}
	if len(items) == 0 {
		fmt.Println("(none)")
	}
}

func printEvents(events []*types.Event) {
	if jsonOut {
		printJSON(events)
		return
	}
	for _, ev := range events {
		fmt.Printf("%s  %-12s %s -> %s\n", ev.CreatedAt.Format("2006-01-02T15:04:05Z07:00"), ev.Kind, ev.SourceTask, ev.TargetTask)
	}
	if len(events) == 0 {
		fmt.Println("(none)")
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
