package model

import (
	"context"
	"net"
)

// SecurityLayer produces the network listener the HTTP server serves on,
// either plain TCP or TLS.
type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
}

// Server is the lifecycle surface of the HTTP API server.
type Server interface {
	Start(securityLayer SecurityLayer) error
	Stop(ctx context.Context) error
	Address() string
}
