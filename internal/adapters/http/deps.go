package http

import (
	natsadapter "github.com/tripsense/tripsense/internal/adapters/nats"
	"github.com/tripsense/tripsense/internal/adapters/valkey"
	"github.com/tripsense/tripsense/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Recommendations *usecases.RecommendationService
	Events          *natsadapter.Publisher
	Cache           *valkey.Cache
}
