// Command engramd is the standalone daemon entrypoint, for process
// supervisors (systemd units, container entrypoints) that want to own the
// daemon's lifecycle directly rather than going through the engram CLI's
// "daemon" subcommand (which wraps the same internal/daemon.Run).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/engram-dev/engram/internal/daemon"
)

func main() {
	root := flag.String("root", ".", "store root directory")
	otlpEndpoint := flag.String("otlp-endpoint", "", "export daemon telemetry to this OTLP HTTP endpoint")
	flag.Parse()

	if err := daemon.Run(context.Background(), daemon.Options{Root: *root, OTLPEndpoint: *otlpEndpoint}); err != nil {
		fmt.Fprintln(os.Stderr, "engramd:", err)
		os.Exit(1)
	}
}
