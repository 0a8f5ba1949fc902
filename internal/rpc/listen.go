package rpc

import "net"

// Listen binds the daemon's RPC endpoint at socketPath, using a Unix
// domain socket on platforms that support one and a loopback TCP port
// with a metadata file elsewhere.
func Listen(socketPath string) (net.Listener, error) {
	return listenRPC(socketPath)
}
