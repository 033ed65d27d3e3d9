package http

import (
	"github.com/nats-io/nats.go"
	"github.com/samirrijal/plotfit/internal/adapters/mercator"
	"github.com/samirrijal/plotfit/internal/adapters/postgres"
	"github.com/samirrijal/plotfit/internal/adapters/valkey"
	"github.com/samirrijal/plotfit/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
// NATS, DB and Cache are optional. OpenAPIPath defaults to
// DefaultOpenAPIPath.
type Dependencies struct {
	Controller *usecases.InteractionController
	Polygons   *usecases.PolygonService
	Validator  *usecases.ContainmentValidator
	Surface    *mercator.Surface
	NATS       *nats.Conn
	DB         *postgres.DB
	Cache      *valkey.Cache

	OpenAPIPath string
}
