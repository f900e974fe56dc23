package bootstrap

import (
	recordv1 "github.com/muhammadchandra19/tickstream/internal/domain/record/v1"
	recordInfra "github.com/muhammadchandra19/tickstream/internal/infrastructure/postgres/record"
)

// Repository holds the storage gateways.
type Repository struct {
	RecordRepository recordv1.Repository
}

// registerRepository registers the repositories.
func (b *Bootstrap) registerRepository() {
	b.Repository.RecordRepository = recordInfra.NewRepository(b.Postgres)
}
