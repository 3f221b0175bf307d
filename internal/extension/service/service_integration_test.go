//go:build integration

package service

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"leadhub/internal/events"
	extrepo "leadhub/internal/extension/repository"
	"leadhub/internal/extension/transport"
	leadsrepo "leadhub/internal/leads/repository"
	leadsservice "leadhub/internal/leads/service"
	leadstransport "leadhub/internal/leads/transport"
	"leadhub/internal/rationale"
	"leadhub/migrations"
	"leadhub/platform/db"
	"leadhub/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type testDatabaseConfig string

func (c testDatabaseConfig) GetDatabaseURL() string { return string(c) }

type testAIConfig struct{}

func (testAIConfig) GetGeminiAPIKey() string            { return "" }
func (testAIConfig) GetRationaleModel() string          { return "" }
func (testAIConfig) GetRationaleTimeout() time.Duration { return time.Second }
func (testAIConfig) IsRationaleAIEnabled() bool         { return false }

type recordingGate struct {
	mu    sync.Mutex
	calls int
}

func (g *recordingGate) RequestDecision(ctx context.Context, kind string, requestID uuid.UUID, summary string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return nil
}

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

func TestConcurrentSubmitsOneWins(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	log := logger.New("test")
	bus := events.NewInMemoryBus(log)

	leadsRepo := leadsrepo.New(pool)
	leadsSvc := leadsservice.New(leadsRepo, bus, log, time.UTC)
	gate := &recordingGate{}
	gen := rationale.New(ctx, testAIConfig{}, log)
	svc := New(extrepo.New(pool), leadsRepo, gate, gen, bus, log, time.UTC)

	var leadID, merchantID uuid.UUID
	if err := pool.QueryRow(ctx, `
		INSERT INTO leads (first_name, last_name, phone) VALUES ('Jiro', 'Tanaka', '+819011112222')
		RETURNING id
	`).Scan(&leadID); err != nil {
		t.Fatalf("seed lead: %v", err)
	}
	if err := pool.QueryRow(ctx, `
		INSERT INTO merchants (name) VALUES ('Extension Builder') RETURNING id
	`).Scan(&merchantID); err != nil {
		t.Fatalf("seed merchant: %v", err)
	}

	delivered, err := leadsSvc.DeliverLead(ctx, leadstransport.DeliverLeadRequest{LeadID: leadID, MerchantID: merchantID})
	if err != nil {
		t.Fatalf("deliver lead: %v", err)
	}

	day := time.Now().UTC().Format("2006-01-02")
	req := transport.SubmitRequest{
		AssignmentID:    delivered.AssignmentID,
		MerchantID:      merchantID,
		ContactDate:     day,
		AppointmentDate: day,
		Justification:   "customer asked to postpone the site visit",
	}

	start := make(chan struct{})
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Submit(ctx, req)
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	var succeeded, failed int
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			failed++
		}
	}
	if succeeded != 1 || failed != 1 {
		t.Fatalf("succeeded = %d, failed = %d, want exactly one of each", succeeded, failed)
	}

	var pending int
	if err := pool.QueryRow(ctx, `
		SELECT count(*) FROM extension_requests WHERE assignment_id = $1
	`, delivered.AssignmentID).Scan(&pending); err != nil {
		t.Fatalf("count requests: %v", err)
	}
	if pending != 1 {
		t.Errorf("stored requests = %d, want 1", pending)
	}
}
