// Package cancellation provides the cancellation workflow bounded context.
package cancellation

import (
	"time"

	approvalservice "leadhub/internal/approval/service"
	"leadhub/internal/cancellation/handler"
	"leadhub/internal/cancellation/repository"
	"leadhub/internal/cancellation/service"
	"leadhub/internal/events"
	apphttp "leadhub/internal/http"
	leadsrepo "leadhub/internal/leads/repository"
	leadsservice "leadhub/internal/leads/service"
	"leadhub/internal/rationale"
	"leadhub/platform/logger"
	"leadhub/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the cancellation bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	svc     *service.Service
}

// NewModule wires the cancellation workflow and registers it as the
// decision applier for its kind on the approval gate.
func NewModule(
	pool *pgxpool.Pool,
	leads *leadsrepo.Repository,
	inspector *leadsservice.Service,
	gate *approvalservice.Gate,
	gen *rationale.Generator,
	bus events.Bus,
	val *validator.Validator,
	loc *time.Location,
	log *logger.Logger,
) *Module {
	svc := service.New(repository.New(pool), leads, inspector, gate, gen, bus, log, loc)
	gate.RegisterApplier(approvalservice.KindCancellation, svc)

	return &Module{
		handler: handler.New(svc, val),
		svc:     svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "cancellation"
}

// RegisterRoutes mounts the cancellation routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/cancellations"))
}
