package server

import "context"

// Server is a long-running listener driven by the fx lifecycle. Start must return once the
// server is accepting connections; Addr reports the bound address after Start.
type Server interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Addr() string
}
