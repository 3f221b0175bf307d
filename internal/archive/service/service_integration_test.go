//go:build integration

package service

import (
	"context"
	"os"
	"testing"
	"time"

	archiverepo "leadhub/internal/archive/repository"
	"leadhub/internal/events"
	leadsrepo "leadhub/internal/leads/repository"
	leadsservice "leadhub/internal/leads/service"
	"leadhub/internal/leads/transport"
	"leadhub/migrations"
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

func seedAssignment(t *testing.T, pool *pgxpool.Pool, leads *leadsservice.Service) (assignmentID, leadID, merchantID uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	err := pool.QueryRow(ctx, `
		INSERT INTO leads (first_name, last_name, phone) VALUES ('Hanako', 'Suzuki', '+819087654321')
		RETURNING id
	`).Scan(&leadID)
	if err != nil {
		t.Fatalf("seed lead: %v", err)
	}
	err = pool.QueryRow(ctx, `
		INSERT INTO merchants (name) VALUES ('Archive Builder') RETURNING id
	`).Scan(&merchantID)
	if err != nil {
		t.Fatalf("seed merchant: %v", err)
	}

	delivered, err := leads.DeliverLead(ctx, transport.DeliverLeadRequest{LeadID: leadID, MerchantID: merchantID})
	if err != nil {
		t.Fatalf("deliver lead: %v", err)
	}
	return delivered.AssignmentID, leadID, merchantID
}

func assertSameAssignment(t *testing.T, before, after leadsrepo.Assignment) {
	t.Helper()
	if after.ID != before.ID || after.LeadID != before.LeadID || after.MerchantID != before.MerchantID {
		t.Errorf("identity changed: before %+v, after %+v", before, after)
	}
	if after.Status != before.Status || after.DetailStatus != before.DetailStatus {
		t.Errorf("lifecycle changed: before %s/%s, after %s/%s",
			before.Status, before.DetailStatus, after.Status, after.DetailStatus)
	}
	if after.Rank != before.Rank || after.CallCount != before.CallCount ||
		after.SMSCount != before.SMSCount || after.MailCount != before.MailCount ||
		after.VisitCount != before.VisitCount {
		t.Errorf("counters changed: before %+v, after %+v", before, after)
	}
	if !after.DeliveredAt.Equal(before.DeliveredAt) ||
		!after.WorkingDeadline.Equal(before.WorkingDeadline) ||
		!after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Errorf("timestamps changed: before %+v, after %+v", before, after)
	}
}

func TestArchiveRestoreRoundTrip(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	log := logger.New("test")
	bus := events.NewInMemoryBus(log)

	leadsRepo := leadsrepo.New(pool)
	leadsSvc := leadsservice.New(leadsRepo, bus, log, time.UTC)
	svc := New(archiverepo.New(pool), leadsRepo)

	assignmentID, _, merchantID := seedAssignment(t, pool, leadsSvc)
	userID := uuid.New()

	before, err := leadsRepo.GetAssignmentForMerchant(ctx, assignmentID, merchantID)
	if err != nil {
		t.Fatalf("read before archive: %v", err)
	}

	if _, err := svc.Archive(ctx, assignmentID, merchantID, userID); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if listContains(t, leadsRepo, merchantID, assignmentID) {
		t.Error("archived assignment still visible in the working list")
	}

	if err := svc.Restore(ctx, assignmentID, merchantID, userID); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !listContains(t, leadsRepo, merchantID, assignmentID) {
		t.Error("restored assignment missing from the working list")
	}

	after, err := leadsRepo.GetAssignmentForMerchant(ctx, assignmentID, merchantID)
	if err != nil {
		t.Fatalf("read after restore: %v", err)
	}
	assertSameAssignment(t, before, after)
}

func listContains(t *testing.T, repo *leadsrepo.Repository, merchantID, assignmentID uuid.UUID) bool {
	t.Helper()
	items, err := repo.ListDelivered(context.Background(), merchantID, false)
	if err != nil {
		t.Fatalf("ListDelivered: %v", err)
	}
	for _, item := range items {
		if item.ID == assignmentID {
			return true
		}
	}
	return false
}
