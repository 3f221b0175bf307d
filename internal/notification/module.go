// Package notification routes lifecycle and scheduler alerts to merchant
// users over their preferred channels and keeps the delivery log.
package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leadhub/internal/events"
	apphttp "leadhub/internal/http"
	leadsrepo "leadhub/internal/leads/repository"
	"leadhub/internal/notification/channel"
	"leadhub/internal/notification/handler"
	"leadhub/internal/notification/repository"
	"leadhub/internal/notification/router"
	"leadhub/internal/notification/service"
	"leadhub/platform/config"
	"leadhub/platform/logger"
	"leadhub/platform/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the notification bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	router  *router.Router
	repo    *repository.Repository
	leads   *leadsrepo.Repository
	log     *logger.Logger
	loc     *time.Location
}

// NewModule wires the channels in fallback order, subscribes the dispatch
// handlers to the event bus and exposes the preference endpoints.
func NewModule(pool *pgxpool.Pool, cfg *config.Config, eventBus events.Bus, val *validator.Validator, loc *time.Location, log *logger.Logger, leads *leadsrepo.Repository) *Module {
	repo := repository.New(pool)

	// Unconfigured channels return nil from their constructors and must not
	// enter the slice as typed-nil interfaces.
	var merchantChannels []channel.Channel
	if messaging := channel.NewMessaging(cfg, repo, log); messaging != nil {
		merchantChannels = append(merchantChannels, messaging)
	}
	if push := channel.NewWebPush(cfg, repo, log); push != nil {
		merchantChannels = append(merchantChannels, push)
	}
	var sms channel.Channel
	if gateway := channel.NewSMS(cfg, log); gateway != nil {
		sms = gateway
		merchantChannels = append(merchantChannels, gateway)
	}

	m := &Module{
		handler: handler.New(service.New(repo), val),
		router:  router.New(repo, log, loc, merchantChannels, sms),
		repo:    repo,
		leads:   leads,
		log:     log,
		loc:     loc,
	}

	eventBus.Subscribe(events.AssignmentDelivered{}.EventName(), events.HandlerFunc(m.onAssignmentDelivered))
	eventBus.Subscribe(events.CancellationDecided{}.EventName(), events.HandlerFunc(m.onCancellationDecided))
	eventBus.Subscribe(events.ExtensionDecided{}.EventName(), events.HandlerFunc(m.onExtensionDecided))
	eventBus.Subscribe(events.DigestDue{}.EventName(), events.HandlerFunc(m.onDigestDue))
	eventBus.Subscribe(events.ActionReminderDue{}.EventName(), events.HandlerFunc(m.onActionReminderDue))

	return m
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// RegisterRoutes mounts the preference and subscription routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/notifications"))
}

// fanOut delivers one message to every stored profile of a merchant.
func (m *Module) fanOut(ctx context.Context, merchantID uuid.UUID, msg channel.Message) error {
	profiles, err := m.repo.ListProfilesByMerchant(ctx, merchantID)
	if err != nil {
		return fmt.Errorf("list notification profiles: %w", err)
	}
	for _, profile := range profiles {
		m.router.DispatchToMerchantUser(ctx, profile, msg)
	}
	return nil
}

func (m *Module) leadName(ctx context.Context, leadID uuid.UUID) string {
	lead, err := m.leads.GetLead(ctx, leadID)
	if err != nil {
		m.log.DatabaseError("load lead for notification", err)
		return "a lead"
	}
	return strings.TrimSpace(lead.LastName + " " + lead.FirstName)
}

func (m *Module) onAssignmentDelivered(ctx context.Context, event events.Event) error {
	e, ok := event.(events.AssignmentDelivered)
	if !ok {
		return nil
	}
	name := m.leadName(ctx, e.LeadID)
	leadID := e.LeadID
	return m.fanOut(ctx, e.MerchantID, channel.Message{
		Title:     "New case delivered",
		Body:      fmt.Sprintf("%s has been delivered to you (position %d). Make first contact within the request window.", name, e.Rank),
		AlertType: router.AlertAssignmentDelivered,
		LeadID:    &leadID,
	})
}

func (m *Module) onCancellationDecided(ctx context.Context, event events.Event) error {
	e, ok := event.(events.CancellationDecided)
	if !ok {
		return nil
	}
	name := m.leadName(ctx, e.LeadID)
	leadID := e.LeadID

	msg := channel.Message{
		AlertType: router.AlertCancellationDecided,
		LeadID:    &leadID,
	}
	if e.Approved {
		msg.Title = "Cancellation approved"
		msg.Body = fmt.Sprintf("Your cancellation request for %s was approved. The case no longer counts toward your delivery.", name)
	} else {
		msg.Title = "Cancellation rejected"
		msg.Body = fmt.Sprintf("Your cancellation request for %s was rejected.", name)
		if e.Rationale != "" {
			msg.Body += "\n" + e.Rationale
		}
	}
	if err := m.fanOut(ctx, e.MerchantID, msg); err != nil {
		return err
	}

	// An approved cancellation releases the customer; tell them a different
	// contractor will follow up.
	if e.Approved {
		lead, err := m.leads.GetLead(ctx, e.LeadID)
		if err != nil {
			m.log.DatabaseError("load lead for customer notification", err)
			return nil
		}
		if lead.Phone != "" {
			m.router.DispatchToCustomer(ctx, lead.Phone, channel.Message{
				Body:      "One of the contractors on your request is no longer available. Another contractor will contact you shortly.",
				AlertType: router.AlertCancellationDecided,
				LeadID:    &leadID,
			})
		}
	}
	return nil
}

func (m *Module) onExtensionDecided(ctx context.Context, event events.Event) error {
	e, ok := event.(events.ExtensionDecided)
	if !ok {
		return nil
	}
	name := m.leadName(ctx, e.LeadID)
	leadID := e.LeadID

	msg := channel.Message{
		AlertType: router.AlertExtensionDecided,
		LeadID:    &leadID,
	}
	if e.Approved {
		msg.Title = "Extension approved"
		body := fmt.Sprintf("Your extension request for %s was approved.", name)
		if e.ExtendedDeadline != nil {
			body = fmt.Sprintf("Your extension request for %s was approved. The working deadline is now %s.",
				name, e.ExtendedDeadline.In(m.loc).Format("2006-01-02"))
		}
		msg.Body = body
	} else {
		msg.Title = "Extension rejected"
		msg.Body = fmt.Sprintf("Your extension request for %s was rejected.", name)
		if e.Rationale != "" {
			msg.Body += "\n" + e.Rationale
		}
	}
	return m.fanOut(ctx, e.MerchantID, msg)
}

func (m *Module) onDigestDue(ctx context.Context, event events.Event) error {
	e, ok := event.(events.DigestDue)
	if !ok || len(e.Items) == 0 {
		return nil
	}

	title := "Today's scheduled actions"
	if e.Slot == "evening" {
		title = "Tomorrow's scheduled actions"
	}

	var b strings.Builder
	for _, item := range e.Items {
		fmt.Fprintf(&b, "%s %s - %s\n", item.ActionAt.In(m.loc).Format("15:04"), item.ActionKind, item.LeadName)
	}

	return m.fanOut(ctx, e.MerchantID, channel.Message{
		Title:     title,
		Body:      strings.TrimRight(b.String(), "\n"),
		AlertType: router.AlertDailyDigest,
	})
}

func (m *Module) onActionReminderDue(ctx context.Context, event events.Event) error {
	e, ok := event.(events.ActionReminderDue)
	if !ok {
		return nil
	}
	leadID := e.LeadID
	return m.fanOut(ctx, e.MerchantID, channel.Message{
		Title:     "Upcoming action",
		Body:      fmt.Sprintf("%s for %s at %s.", e.ActionKind, e.LeadName, e.ActionAt.In(m.loc).Format("15:04")),
		AlertType: router.AlertActionReminder,
		LeadID:    &leadID,
	})
}
