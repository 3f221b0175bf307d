package scheduler

import (
	"context"
	"fmt"
	"time"

	"leadhub/internal/events"
	leadsrepo "leadhub/internal/leads/repository"
	"leadhub/platform/config"
	"leadhub/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	repo      *leadsrepo.Repository
	dedup     *Dedup
	bus       events.Bus
	log       *logger.Logger
	loc       *time.Location
	lookahead time.Duration
	now       func() time.Time
}

func NewWorker(cfg config.SchedulerConfig, loc *time.Location, pool *pgxpool.Pool, dedup *Dedup, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	lookahead := cfg.GetReminderLookahead()
	if lookahead <= 0 {
		lookahead = 15 * time.Minute
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		repo:      leadsrepo.New(pool),
		dedup:     dedup,
		bus:       bus,
		log:       log,
		loc:       loc,
		lookahead: lookahead,
		now:       time.Now,
	}

	mux.HandleFunc(TaskMorningDigest, w.handleDigest)
	mux.HandleFunc(TaskEveningDigest, w.handleDigest)
	mux.HandleFunc(TaskReminderScan, w.handleReminderScan)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleDigest collects the slot's planned actions and publishes one digest
// per merchant. The morning slot covers the current local day, the evening
// slot the next one.
func (w *Worker) handleDigest(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseDigestPayload(task)
	if err != nil {
		return err
	}

	now := w.now().In(w.loc)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, w.loc)
	if payload.Slot == "evening" {
		day = day.AddDate(0, 0, 1)
	}

	actions, err := w.repo.ListActionsBetween(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return err
	}
	if len(actions) == 0 {
		return nil
	}

	byMerchant := make(map[uuid.UUID][]events.DigestItem)
	for _, action := range actions {
		byMerchant[action.MerchantID] = append(byMerchant[action.MerchantID], events.DigestItem{
			AssignmentID: action.AssignmentID,
			LeadID:       action.LeadID,
			LeadName:     action.LeadName,
			ActionKind:   action.ActionKind,
			ActionAt:     action.ActionAt,
		})
	}

	for merchantID, items := range byMerchant {
		claimed, err := w.dedup.ClaimDigest(ctx, merchantID, payload.Slot, day)
		if err != nil {
			return err
		}
		if !claimed {
			continue
		}

		w.bus.Publish(ctx, events.DigestDue{
			BaseEvent:  events.NewBaseEvent(),
			MerchantID: merchantID,
			Slot:       payload.Slot,
			Items:      items,
		})
	}
	return nil
}

// handleReminderScan publishes a reminder for every planned action coming
// due inside the lookahead window. The dedup mark makes minute-cadence
// scans over overlapping windows emit each reminder once.
func (w *Worker) handleReminderScan(ctx context.Context, _ *asynq.Task) error {
	now := w.now()

	actions, err := w.repo.ListActionsBetween(ctx, now, now.Add(w.lookahead))
	if err != nil {
		return err
	}

	for _, action := range actions {
		claimed, err := w.dedup.ClaimReminder(ctx, action.AssignmentID, action.ActionAt)
		if err != nil {
			return err
		}
		if !claimed {
			continue
		}

		w.bus.Publish(ctx, events.ActionReminderDue{
			BaseEvent:    events.NewBaseEvent(),
			AssignmentID: action.AssignmentID,
			LeadID:       action.LeadID,
			MerchantID:   action.MerchantID,
			LeadName:     action.LeadName,
			ActionKind:   action.ActionKind,
			ActionAt:     action.ActionAt,
		})
	}
	return nil
}
