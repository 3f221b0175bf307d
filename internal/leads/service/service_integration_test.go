//go:build integration

package service

import (
	"context"
	"os"
	"testing"
	"time"

	"leadhub/internal/events"
	"leadhub/internal/leads/domain"
	"leadhub/internal/leads/repository"
	"leadhub/internal/leads/transport"
	"leadhub/migrations"
	"leadhub/platform/apperr"
	"leadhub/platform/db"
	"leadhub/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type testDatabaseConfig string

func (c testDatabaseConfig) GetDatabaseURL() string { return string(c) }

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	if err := db.RunMigrations(ctx, testDatabaseConfig(url), migrations.FS); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func seedMerchant(t *testing.T, pool *pgxpool.Pool, name string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(context.Background(), `
		INSERT INTO merchants (name) VALUES ($1) RETURNING id
	`, name).Scan(&id)
	if err != nil {
		t.Fatalf("seed merchant: %v", err)
	}
	return id
}

func seedLead(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(context.Background(), `
		INSERT INTO leads (first_name, last_name, phone, prefecture, city, work_category)
		VALUES ('Taro', 'Yamada', '+819012345678', 'Tokyo', 'Setagaya', 'renovation')
		RETURNING id
	`).Scan(&id)
	if err != nil {
		t.Fatalf("seed lead: %v", err)
	}
	return id
}

func newTestService(t *testing.T, pool *pgxpool.Pool) (*Service, *repository.Repository, events.Bus) {
	t.Helper()
	log := logger.New("test")
	bus := events.NewInMemoryBus(log)
	repo := repository.New(pool)
	return New(repo, bus, log, time.UTC), repo, bus
}

func TestDeliverLeadCreatesAssignmentAndPublishes(t *testing.T) {
	pool := newTestPool(t)
	svc, _, bus := newTestService(t, pool)
	ctx := context.Background()

	delivered := make(chan events.AssignmentDelivered, 2)
	bus.Subscribe(events.AssignmentDelivered{}.EventName(), events.HandlerFunc(func(_ context.Context, event events.Event) error {
		if e, ok := event.(events.AssignmentDelivered); ok {
			delivered <- e
		}
		return nil
	}))

	leadID := seedLead(t, pool)
	merchantA := seedMerchant(t, pool, "Builder A")
	merchantB := seedMerchant(t, pool, "Builder B")

	caseA, err := svc.DeliverLead(ctx, transport.DeliverLeadRequest{LeadID: leadID, MerchantID: merchantA})
	if err != nil {
		t.Fatalf("DeliverLead: %v", err)
	}
	if caseA.Rank != 1 {
		t.Errorf("Rank = %d, want 1", caseA.Rank)
	}
	if caseA.Status != string(domain.StatusDelivered) {
		t.Errorf("Status = %q, want delivered", caseA.Status)
	}
	if caseA.DetailStatus != string(domain.DetailUnhandled) {
		t.Errorf("DetailStatus = %q, want unhandled", caseA.DetailStatus)
	}
	wantDeadline := domain.InitialDeadline(caseA.DeliveredAt, time.UTC)
	if !caseA.WorkingDeadline.Equal(wantDeadline) {
		t.Errorf("WorkingDeadline = %v, want %v", caseA.WorkingDeadline, wantDeadline)
	}

	select {
	case e := <-delivered:
		if e.AssignmentID != caseA.AssignmentID || e.MerchantID != merchantA {
			t.Errorf("event = %+v, want assignment %s for merchant %s", e, caseA.AssignmentID, merchantA)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no delivery event published")
	}

	caseB, err := svc.DeliverLead(ctx, transport.DeliverLeadRequest{LeadID: leadID, MerchantID: merchantB})
	if err != nil {
		t.Fatalf("DeliverLead second merchant: %v", err)
	}
	if caseB.Rank != 2 {
		t.Errorf("second Rank = %d, want 2", caseB.Rank)
	}

	if _, err := svc.DeliverLead(ctx, transport.DeliverLeadRequest{LeadID: leadID, MerchantID: merchantA}); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("repeat delivery error = %v, want conflict", err)
	}
}

func TestContractReportSingleOwnerPerLead(t *testing.T) {
	pool := newTestPool(t)
	svc, repo, _ := newTestService(t, pool)
	ctx := context.Background()

	leadID := seedLead(t, pool)
	merchantA := seedMerchant(t, pool, "Builder A")
	merchantB := seedMerchant(t, pool, "Builder B")

	caseA, err := svc.DeliverLead(ctx, transport.DeliverLeadRequest{LeadID: leadID, MerchantID: merchantA})
	if err != nil {
		t.Fatalf("DeliverLead A: %v", err)
	}
	caseB, err := svc.DeliverLead(ctx, transport.DeliverLeadRequest{LeadID: leadID, MerchantID: merchantB})
	if err != nil {
		t.Fatalf("DeliverLead B: %v", err)
	}

	reportA := transport.ContractReportRequest{
		AssignmentID:   caseA.AssignmentID,
		MerchantID:     merchantA,
		ReportType:     string(domain.ReportTypeContract),
		ReportStatus:   string(domain.ReportPostContractPreWork),
		ContractAmount: 1_500_000,
	}
	if _, err := svc.SubmitContractReport(ctx, reportA); err != nil {
		t.Fatalf("merchant A report: %v", err)
	}

	reportB := reportA
	reportB.AssignmentID = caseB.AssignmentID
	reportB.MerchantID = merchantB
	if _, err := svc.SubmitContractReport(ctx, reportB); !apperr.Is(err, apperr.KindPrecondition) {
		t.Fatalf("merchant B report error = %v, want precondition", err)
	}

	b, err := repo.GetAssignment(ctx, caseB.AssignmentID)
	if err != nil {
		t.Fatalf("reload B: %v", err)
	}
	if b.Status != domain.StatusDelivered || b.DetailStatus != domain.DetailUnhandled {
		t.Errorf("merchant B assignment moved to %s/%s, want delivered/unhandled", b.Status, b.DetailStatus)
	}

	// Additional work on the contract holder's own assignment stays allowed.
	followUp := transport.ContractReportRequest{
		AssignmentID:   caseA.AssignmentID,
		MerchantID:     merchantA,
		ReportType:     string(domain.ReportTypeAdditionalWork),
		ReportStatus:   string(domain.ReportInProgress),
		ContractAmount: 300_000,
	}
	if _, err := svc.SubmitContractReport(ctx, followUp); err != nil {
		t.Errorf("additional work report: %v", err)
	}
}

func TestListActionsBetweenIncludesAppointments(t *testing.T) {
	pool := newTestPool(t)
	svc, repo, _ := newTestService(t, pool)
	ctx := context.Background()

	leadID := seedLead(t, pool)
	merchantID := seedMerchant(t, pool, "Builder A")
	delivered, err := svc.DeliverLead(ctx, transport.DeliverLeadRequest{LeadID: leadID, MerchantID: merchantID})
	if err != nil {
		t.Fatalf("DeliverLead: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Minute)
	nextAction := now.Add(30 * time.Minute)
	appointment := now.Add(45 * time.Minute)
	kind := "call"
	if _, err := svc.SetSchedule(ctx, transport.SetScheduleRequest{
		AssignmentID:   delivered.AssignmentID,
		MerchantID:     merchantID,
		NextActionAt:   &nextAction,
		NextActionKind: &kind,
		AppointmentAt:  &appointment,
	}); err != nil {
		t.Fatalf("SetSchedule: %v", err)
	}

	actions, err := repo.ListActionsBetween(ctx, now, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("ListActionsBetween: %v", err)
	}

	kinds := map[string]bool{}
	for _, a := range actions {
		if a.AssignmentID == delivered.AssignmentID {
			kinds[a.ActionKind] = true
		}
	}
	if !kinds["call"] {
		t.Error("planned call missing from the scan")
	}
	if !kinds["appointment"] {
		t.Error("appointment missing from the scan")
	}
}
