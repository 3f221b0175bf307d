package repository

import (
	"context"
	"fmt"
	"time"

	"leadhub/internal/leads/domain"

	"github.com/google/uuid"
)

type ContactLog struct {
	ID           uuid.UUID
	AssignmentID uuid.UUID
	Kind         domain.ContactKind
	Note         string
	ContactedAt  time.Time
	CreatedAt    time.Time
}

// counterColumn maps a contact kind to its denormalized counter on the
// assignment row. Kinds are validated before this point; the panic guards
// against SQL built from an unchecked string.
func counterColumn(kind domain.ContactKind) string {
	switch kind {
	case domain.ContactCall:
		return "call_count"
	case domain.ContactSMS:
		return "sms_count"
	case domain.ContactMail:
		return "mail_count"
	case domain.ContactVisit:
		return "visit_count"
	}
	panic(fmt.Sprintf("unknown contact kind %q", kind))
}

// RecordContact appends a contact log entry and bumps the matching counter
// and last_contact_at in one transaction.
func (r *Repository) RecordContact(ctx context.Context, assignmentID uuid.UUID, kind domain.ContactKind, note string, contactedAt time.Time) (ContactLog, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return ContactLog{}, err
	}
	defer tx.Rollback(ctx)

	var log ContactLog
	err = tx.QueryRow(ctx, `
		INSERT INTO contact_logs (assignment_id, kind, note, contacted_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, assignment_id, kind, note, contacted_at, created_at
	`, assignmentID, kind, note, contactedAt).Scan(
		&log.ID, &log.AssignmentID, &log.Kind, &log.Note, &log.ContactedAt, &log.CreatedAt,
	)
	if err != nil {
		return ContactLog{}, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE assignments
		SET `+counterColumn(kind)+` = `+counterColumn(kind)+` + 1,
			last_contact_at = GREATEST(coalesce(last_contact_at, $2), $2),
			updated_at = now()
		WHERE id = $1
	`, assignmentID, contactedAt)
	if err != nil {
		return ContactLog{}, err
	}
	if tag.RowsAffected() == 0 {
		return ContactLog{}, ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return ContactLog{}, err
	}
	return log, nil
}

func (r *Repository) ListContacts(ctx context.Context, assignmentID uuid.UUID) ([]ContactLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, assignment_id, kind, note, contacted_at, created_at
		FROM contact_logs
		WHERE assignment_id = $1
		ORDER BY contacted_at DESC
	`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]ContactLog, 0)
	for rows.Next() {
		var log ContactLog
		if err := rows.Scan(&log.ID, &log.AssignmentID, &log.Kind, &log.Note, &log.ContactedAt, &log.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
