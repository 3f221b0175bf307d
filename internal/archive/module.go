// Package archive provides the archive workflow bounded context.
package archive

import (
	"leadhub/internal/archive/handler"
	"leadhub/internal/archive/repository"
	"leadhub/internal/archive/service"
	apphttp "leadhub/internal/http"
	leadsrepo "leadhub/internal/leads/repository"
	"leadhub/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the archive bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates the archive module.
func NewModule(pool *pgxpool.Pool, leads *leadsrepo.Repository, val *validator.Validator) *Module {
	svc := service.New(repository.New(pool), leads)
	return &Module{handler: handler.New(svc, val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "archive"
}

// RegisterRoutes mounts the archive routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/archive"))
}
