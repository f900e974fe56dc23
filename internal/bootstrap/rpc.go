package bootstrap

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/muhammadchandra19/tickstream/internal/rpc"
)

// RPC holds the HTTP operational surface.
type RPC struct {
	Server *rpc.Server
}

// registerRPC registers the ops server.
func (b *Bootstrap) registerRPC() {
	b.RPC.Server = rpc.NewServer(
		b.Usecase.Pipeline,
		b.Usecase.Buffer,
		b.Usecase.Aggregator,
		prometheus.DefaultGatherer,
		b.Logger,
	)
}
