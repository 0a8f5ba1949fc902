// Command engram is the peripheral CLI over the task-graph store: it
// embeds the store directly for read-only commands when no daemon is
// running and dials/auto-starts the daemon otherwise, so every command
// observes the same internal/store.Store semantics regardless of path.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/engram-dev/engram/internal/applog"
)

var (
	rootDir  string
	noDaemon bool
	jsonOut  bool
)

var rootCmd = &cobra.Command{
	Use:   "engram",
	Short: "A task-graph store: items, typed edges, and a readiness query",
}

func main() {
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".", "store root directory")
	rootCmd.PersistentFlags().BoolVar(&noDaemon, "no-daemon", false, "force the embedded store path, never dial a daemon")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print machine-readable JSON")
	viper.BindPFlag("root", rootCmd.PersistentFlags().Lookup("root"))

	if os.Getenv("ENGRAM_DEBUG") != "" {
		applog.SetDebug(true)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "engram:", err)
		os.Exit(1)
	}
}
