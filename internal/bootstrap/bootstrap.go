package bootstrap

import (
	"github.com/muhammadchandra19/tickstream/pkg/config"
	"github.com/muhammadchandra19/tickstream/pkg/logger"
	"github.com/muhammadchandra19/tickstream/pkg/postgres"
	"github.com/muhammadchandra19/tickstream/pkg/redis"
)

// Bootstrap wires the process dependency graph.
type Bootstrap struct {
	Repository Repository
	Usecase    Usecase
	RPC        RPC
	Logger     logger.Interface
	Config     *config.Config

	Postgres postgres.PostgresClient
	Redis    redis.Client
}

// BootstrapConfig carries the pre-built clients into Init.
type BootstrapConfig struct {
	Config   *config.Config
	Logger   logger.Interface
	Postgres postgres.PostgresClient
	Redis    redis.Client
}

// Init initializes the bootstrap.
func (b *Bootstrap) Init(config BootstrapConfig) Bootstrap {
	b.Config = config.Config
	b.Logger = config.Logger
	b.Postgres = config.Postgres
	b.Redis = config.Redis

	b.registerRepository()
	b.registerUsecase()
	b.registerRPC()

	return *b
}
