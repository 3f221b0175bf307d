// Package extension provides the deadline extension workflow bounded context.
package extension

import (
	"time"

	approvalservice "leadhub/internal/approval/service"
	"leadhub/internal/events"
	"leadhub/internal/extension/handler"
	"leadhub/internal/extension/repository"
	"leadhub/internal/extension/service"
	apphttp "leadhub/internal/http"
	leadsrepo "leadhub/internal/leads/repository"
	"leadhub/internal/rationale"
	"leadhub/platform/logger"
	"leadhub/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the extension bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	svc     *service.Service
}

// NewModule wires the extension workflow and registers it as the decision
// applier for its kind on the approval gate.
func NewModule(
	pool *pgxpool.Pool,
	leads *leadsrepo.Repository,
	gate *approvalservice.Gate,
	gen *rationale.Generator,
	bus events.Bus,
	val *validator.Validator,
	loc *time.Location,
	log *logger.Logger,
) *Module {
	svc := service.New(repository.New(pool), leads, gate, gen, bus, log, loc)
	gate.RegisterApplier(approvalservice.KindExtension, svc)

	return &Module{
		handler: handler.New(svc, val),
		svc:     svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "extension"
}

// RegisterRoutes mounts the extension routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/extensions"))
}
