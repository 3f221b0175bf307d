package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("cancellation request not found")
	// ErrDuplicatePending surfaces the partial unique index on one pending
	// request per assignment.
	ErrDuplicatePending = errors.New("assignment already has a pending cancellation request")
)

type Request struct {
	ID                 uuid.UUID
	AssignmentID       uuid.UUID
	ReasonCategory     string
	ReasonDetail       string
	CallCountSnapshot  int
	SMSCountSnapshot   int
	MailCountSnapshot  int
	VisitCountSnapshot int
	Status             string
	Approver           *string
	DecidedAt          *time.Time
	RejectionRationale *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type CreateParams struct {
	AssignmentID       uuid.UUID
	ReasonCategory     string
	ReasonDetail       string
	CallCountSnapshot  int
	SMSCountSnapshot   int
	MailCountSnapshot  int
	VisitCountSnapshot int
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const requestColumns = `
	id, assignment_id, reason_category, reason_detail,
	call_count_snapshot, sms_count_snapshot, mail_count_snapshot, visit_count_snapshot,
	status, approver, decided_at, rejection_rationale, created_at, updated_at`

func scanRequest(row pgx.Row) (Request, error) {
	var r Request
	err := row.Scan(
		&r.ID, &r.AssignmentID, &r.ReasonCategory, &r.ReasonDetail,
		&r.CallCountSnapshot, &r.SMSCountSnapshot, &r.MailCountSnapshot, &r.VisitCountSnapshot,
		&r.Status, &r.Approver, &r.DecidedAt, &r.RejectionRationale, &r.CreatedAt, &r.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	return r, err
}

func (r *Repository) Create(ctx context.Context, params CreateParams) (Request, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO cancellation_requests (
			assignment_id, reason_category, reason_detail,
			call_count_snapshot, sms_count_snapshot, mail_count_snapshot, visit_count_snapshot
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+requestColumns,
		params.AssignmentID, params.ReasonCategory, params.ReasonDetail,
		params.CallCountSnapshot, params.SMSCountSnapshot, params.MailCountSnapshot, params.VisitCountSnapshot,
	)
	req, err := scanRequest(row)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Request{}, ErrDuplicatePending
	}
	return req, err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Request, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+requestColumns+` FROM cancellation_requests WHERE id = $1
	`, id)
	return scanRequest(row)
}

func (r *Repository) HasPending(ctx context.Context, assignmentID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM cancellation_requests WHERE assignment_id = $1 AND status = 'pending'
		)
	`, assignmentID).Scan(&exists)
	return exists, err
}

// HasOpenExtension cross-checks the sibling workflow: an open extension
// request blocks a new cancellation (reject-second conflict policy).
func (r *Repository) HasOpenExtension(ctx context.Context, assignmentID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM extension_requests WHERE assignment_id = $1 AND status = 'pending'
		)
	`, assignmentID).Scan(&exists)
	return exists, err
}

func (r *Repository) IsArchived(ctx context.Context, assignmentID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM archive_marks WHERE assignment_id = $1)
	`, assignmentID).Scan(&exists)
	return exists, err
}

// Resolve finalizes a pending request. Returns false when it was already
// decided, which the caller reports as a conflict.
func (r *Repository) Resolve(ctx context.Context, id uuid.UUID, status, approver string, rationale *string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE cancellation_requests
		SET status = $2, approver = $3, rejection_rationale = $4, decided_at = now(), updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id, status, approver, rationale)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListPending returns pending requests oldest first, for an admin overview.
func (r *Repository) ListPending(ctx context.Context) ([]Request, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+requestColumns+` FROM cancellation_requests
		WHERE status = 'pending' ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Request, 0)
	for rows.Next() {
		var req Request
		if err := rows.Scan(
			&req.ID, &req.AssignmentID, &req.ReasonCategory, &req.ReasonDetail,
			&req.CallCountSnapshot, &req.SMSCountSnapshot, &req.MailCountSnapshot, &req.VisitCountSnapshot,
			&req.Status, &req.Approver, &req.DecidedAt, &req.RejectionRationale, &req.CreatedAt, &req.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, req)
	}
	return items, rows.Err()
}
