// Package leads provides the assignment lifecycle bounded context module.
package leads

import (
	"context"
	"time"

	"leadhub/internal/events"
	apphttp "leadhub/internal/http"
	"leadhub/internal/leads/handler"
	"leadhub/internal/leads/repository"
	"leadhub/internal/leads/service"
	"leadhub/platform/logger"
	"leadhub/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	svc     *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, loc *time.Location, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, log, loc)

	// Keep the merchant standing projection in step with lifecycle writes.
	// Best effort: a failed refresh is logged and retried on the next change.
	eventBus.Subscribe(events.DetailStatusChanged{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.DetailStatusChanged)
		if !ok {
			return nil
		}
		if err := svc.RefreshMerchantStanding(ctx, e.MerchantID); err != nil {
			log.Error("standing refresh failed", "error", err, "merchantId", e.MerchantID)
		}
		return nil
	}))

	return &Module{
		handler: handler.New(svc, val),
		svc:     svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the lifecycle service for use by other modules.
func (m *Module) Service() *service.Service {
	return m.svc
}

// Repository returns the shared assignment repository. The cancellation,
// extension and scheduler modules read assignments through it.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts the case routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/cases"))
}
