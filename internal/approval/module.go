// Package approval provides the human approval gate bounded context module.
package approval

import (
	"leadhub/internal/approval/handler"
	"leadhub/internal/approval/repository"
	"leadhub/internal/approval/service"
	"leadhub/internal/approval/telegram"
	"leadhub/internal/email"
	apphttp "leadhub/internal/http"
	"leadhub/platform/config"
	"leadhub/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the approval bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	gate    *service.Gate
}

// NewModule wires the approval gate. Telegram and SMTP are both optional;
// with neither configured, decisions stay durable and undeliverable, which
// is logged loudly.
func NewModule(pool *pgxpool.Pool, cfg *config.Config, log *logger.Logger) (*Module, error) {
	tg, err := telegram.NewClient(cfg, log)
	if err != nil {
		// A bad bot token should not take the API down; fall back to email.
		log.IntegrationError("telegram", "init", err)
		tg = nil
	}

	var mail email.Sender
	if smtp := email.NewSMTPSender(cfg); smtp != nil {
		mail = smtp
	}

	gate := service.NewGate(repository.New(pool), tg, mail, cfg, log)

	return &Module{
		handler: handler.New(gate),
		gate:    gate,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "approval"
}

// Gate returns the approval gate for workflow modules to register with.
func (m *Module) Gate() *service.Gate {
	return m.gate
}

// RegisterRoutes mounts the callback endpoint behind the strict limiter.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	rg := ctx.V1.Group("/approvals")
	rg.Use(ctx.CallbackRateLimiter.RateLimit())
	m.handler.RegisterRoutes(rg)
}
