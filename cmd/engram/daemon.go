package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/engram-dev/engram/internal/daemon"
	"github.com/engram-dev/engram/internal/lockfile"
	"github.com/engram-dev/engram/internal/rpc"
	"github.com/engram-dev/engram/internal/store"
)

var otlpEndpoint string

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the engram daemon in the foreground",
	Long: `Run the engram daemon in the foreground against --root.

The daemon is the exclusive writer for a store directory: it accepts RPC
connections on a Unix socket, serializes every mutation through the
store's single writer lock, and exits cleanly on SIGTERM/SIGINT or an RPC Shutdown request.
It is normally started automatically by the CLI's auto-start path; running
it directly is mainly useful for debugging or for process supervisors that
want to own its lifecycle.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return daemon.Run(context.Background(), daemon.Options{Root: rootDir, OTLPEndpoint: otlpEndpoint})
	},
}

var daemonStopCmd = &cobra.Command{
	Use:   "daemon-stop",
	Short: "Ask a running daemon to shut down",
	RunE: func(cmd *cobra.Command, args []string) error {
		layout := store.NewLayout(rootDir)
		running, err := lockfile.IsDaemonRunning(layout.Dir(), layout.SocketPath())
		if err != nil {
			return err
		}
		if !running {
			fmt.Println("no daemon running")
			return nil
		}
		c, err := rpc.Connect(rootDir, layout.SocketPath())
		if err != nil {
			return err
		}
		defer c.Close()
		if err := c.Shutdown(); err != nil {
			return err
		}
		fmt.Println("daemon stopped")
		return nil
	},
}

var daemonStatusCmd = &cobra.Command{
	Use:   "daemon-status",
	Short: "Report whether a daemon is running for --root",
	RunE: func(cmd *cobra.Command, args []string) error {
		layout := store.NewLayout(rootDir)
		running, err := lockfile.IsDaemonRunning(layout.Dir(), layout.SocketPath())
		if err != nil {
			return err
		}
		if !running {
			fmt.Println("not running")
			return nil
		}

		c, err := rpc.Connect(rootDir, layout.SocketPath())
		if err != nil {
			fmt.Println("running, but unresponsive:", err)
			return nil
		}
		defer c.Close()

		start := time.Now()
		if err := c.Ping(); err != nil {
			fmt.Println("running, but unresponsive:", err)
			return nil
		}
		fmt.Printf("running, socket %s, ping %s\n", layout.SocketPath(), time.Since(start))
		return nil
	},
}

func init() {
	daemonCmd.Flags().StringVar(&otlpEndpoint, "otlp-endpoint", "", "export daemon telemetry to this OTLP HTTP endpoint")
	rootCmd.AddCommand(daemonCmd, daemonStopCmd, daemonStatusCmd)
}
