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
	ErrNotFound        = errors.New("archive mark not found")
	ErrAlreadyArchived = errors.New("assignment is already archived")
)

type Mark struct {
	AssignmentID uuid.UUID
	ArchivedBy   uuid.UUID
	ArchivedAt   time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, assignmentID, archivedBy uuid.UUID) (Mark, error) {
	var m Mark
	err := r.pool.QueryRow(ctx, `
		INSERT INTO archive_marks (assignment_id, archived_by)
		VALUES ($1, $2)
		RETURNING assignment_id, archived_by, archived_at
	`, assignmentID, archivedBy).Scan(&m.AssignmentID, &m.ArchivedBy, &m.ArchivedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Mark{}, ErrAlreadyArchived
	}
	return m, err
}

func (r *Repository) Get(ctx context.Context, assignmentID uuid.UUID) (Mark, error) {
	var m Mark
	err := r.pool.QueryRow(ctx, `
		SELECT assignment_id, archived_by, archived_at
		FROM archive_marks WHERE assignment_id = $1
	`, assignmentID).Scan(&m.AssignmentID, &m.ArchivedBy, &m.ArchivedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Mark{}, ErrNotFound
	}
	return m, err
}

// Delete removes the mark if the requester placed it. Returns ErrNotFound
// when no row matched, which covers both a missing mark and a foreign owner;
// the service distinguishes the two.
func (r *Repository) Delete(ctx context.Context, assignmentID, requester uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM archive_marks WHERE assignment_id = $1 AND archived_by = $2
	`, assignmentID, requester)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ArchivedCase is an archived assignment joined with lead identity.
type ArchivedCase struct {
	AssignmentID uuid.UUID
	LeadID       uuid.UUID
	LeadName     string
	DetailStatus string
	DeliveredAt  time.Time
	ArchivedBy   uuid.UUID
	ArchivedAt   time.Time
}

func (r *Repository) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]ArchivedCase, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.lead_id, trim(l.last_name || ' ' || l.first_name),
			a.detail_status, a.delivered_at, m.archived_by, m.archived_at
		FROM archive_marks m
		JOIN assignments a ON a.id = m.assignment_id
		JOIN leads l ON l.id = a.lead_id
		WHERE a.merchant_id = $1
		ORDER BY m.archived_at DESC
	`, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]ArchivedCase, 0)
	for rows.Next() {
		var c ArchivedCase
		if err := rows.Scan(&c.AssignmentID, &c.LeadID, &c.LeadName, &c.DetailStatus, &c.DeliveredAt, &c.ArchivedBy, &c.ArchivedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
