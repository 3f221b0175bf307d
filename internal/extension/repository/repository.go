package repository

import (
	"context"
	"errors"
	"time"

	"leadhub/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("extension request not found")
	// ErrDuplicate surfaces the partial unique indexes on pending and
	// approved requests per assignment.
	ErrDuplicate = errors.New("assignment already has an open or approved extension request")
)

type Request struct {
	ID                 uuid.UUID
	AssignmentID       uuid.UUID
	ContactDate        time.Time
	AppointmentDate    time.Time
	Justification      string
	ExtendedDeadline   time.Time
	Status             string
	Approver           *string
	DecidedAt          *time.Time
	RejectionRationale *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type CreateParams struct {
	AssignmentID     uuid.UUID
	ContactDate      time.Time
	AppointmentDate  time.Time
	Justification    string
	ExtendedDeadline time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const requestColumns = `
	id, assignment_id, contact_date, appointment_date, justification, extended_deadline,
	status, approver, decided_at, rejection_rationale, created_at, updated_at`

func scanRequest(row pgx.Row) (Request, error) {
	var r Request
	err := row.Scan(
		&r.ID, &r.AssignmentID, &r.ContactDate, &r.AppointmentDate, &r.Justification, &r.ExtendedDeadline,
		&r.Status, &r.Approver, &r.DecidedAt, &r.RejectionRationale, &r.CreatedAt, &r.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	return r, err
}

func (r *Repository) Create(ctx context.Context, params CreateParams) (Request, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO extension_requests (
			assignment_id, contact_date, appointment_date, justification, extended_deadline
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING `+requestColumns,
		params.AssignmentID, params.ContactDate, params.AppointmentDate,
		params.Justification, params.ExtendedDeadline,
	)
	req, err := scanRequest(row)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Request{}, ErrDuplicate
	}
	return req, err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Request, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+requestColumns+` FROM extension_requests WHERE id = $1
	`, id)
	return scanRequest(row)
}

// HasPendingOrApproved reports whether a prior request blocks a new one.
// One extension per assignment, ever.
func (r *Repository) HasPendingOrApproved(ctx context.Context, assignmentID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM extension_requests
			WHERE assignment_id = $1 AND status IN ('pending', 'approved')
		)
	`, assignmentID).Scan(&exists)
	return exists, err
}

// HasOpenCancellation cross-checks the sibling workflow.
func (r *Repository) HasOpenCancellation(ctx context.Context, assignmentID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM cancellation_requests WHERE assignment_id = $1 AND status = 'pending'
		)
	`, assignmentID).Scan(&exists)
	return exists, err
}

// Resolve finalizes a pending request. Returns false when already decided.
func (r *Repository) Resolve(ctx context.Context, id uuid.UUID, status, approver string, rationale *string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE extension_requests
		SET status = $2, approver = $3, rejection_rationale = $4, decided_at = now(), updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id, status, approver, rationale)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// EligibleCandidate is a delivered assignment that passes the SQL-checkable
// extension rules; the service applies the time-window rule on top.
type EligibleCandidate struct {
	AssignmentID    uuid.UUID
	LeadID          uuid.UUID
	LeadName        string
	DeliveredAt     time.Time
	DetailStatus    domain.DetailStatus
	WorkingDeadline time.Time
}

// ListEligibleCandidates returns a merchant's delivered assignments with an
// extendable detail status and no blocking request in either workflow.
func (r *Repository) ListEligibleCandidates(ctx context.Context, merchantID uuid.UUID) ([]EligibleCandidate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.lead_id, trim(l.last_name || ' ' || l.first_name),
			a.delivered_at, a.detail_status, a.working_deadline
		FROM assignments a
		JOIN leads l ON l.id = a.lead_id
		WHERE a.merchant_id = $1
			AND a.status = 'delivered'
			AND a.detail_status IN ('unhandled', 'pursuing', 'estimate_submitted', 'reviewing')
			AND NOT EXISTS (
				SELECT 1 FROM extension_requests e
				WHERE e.assignment_id = a.id AND e.status IN ('pending', 'approved')
			)
			AND NOT EXISTS (
				SELECT 1 FROM cancellation_requests cr
				WHERE cr.assignment_id = a.id AND cr.status = 'pending'
			)
		ORDER BY a.delivered_at DESC
	`, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]EligibleCandidate, 0)
	for rows.Next() {
		var c EligibleCandidate
		if err := rows.Scan(&c.AssignmentID, &c.LeadID, &c.LeadName, &c.DeliveredAt, &c.DetailStatus, &c.WorkingDeadline); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
