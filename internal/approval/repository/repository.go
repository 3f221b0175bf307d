package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("decision request not found")

type DecisionRequest struct {
	ID        uuid.UUID
	Kind      string
	Status    string
	Decision  *string
	Approver  *string
	DecidedAt *time.Time
	Summary   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create stores the durable pending decision. The ID is the workflow
// request's own ID so the callback resolves straight to it.
func (r *Repository) Create(ctx context.Context, id uuid.UUID, kind, summary string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO decision_requests (id, kind, summary)
		VALUES ($1, $2, $3)
	`, id, kind, summary)
	return err
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (DecisionRequest, error) {
	var d DecisionRequest
	err := r.pool.QueryRow(ctx, `
		SELECT id, kind, status, decision, approver, decided_at, summary, created_at, updated_at
		FROM decision_requests WHERE id = $1
	`, id).Scan(&d.ID, &d.Kind, &d.Status, &d.Decision, &d.Approver, &d.DecidedAt, &d.Summary, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return DecisionRequest{}, ErrNotFound
	}
	return d, err
}

// Resolve records the decision if the request is still pending. Returns
// false when the row was already decided; repeat callbacks land here and
// must stay a no-op.
func (r *Repository) Resolve(ctx context.Context, id uuid.UUID, decision, approver string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE decision_requests
		SET status = 'decided', decision = $2, approver = $3, decided_at = now(), updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id, decision, approver)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
