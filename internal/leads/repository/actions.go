package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ScheduledAction is one planned next action on an open assignment, joined
// with the lead name for digest and reminder copy.
type ScheduledAction struct {
	AssignmentID uuid.UUID
	LeadID       uuid.UUID
	MerchantID   uuid.UUID
	LeadName     string
	ActionKind   string
	ActionAt     time.Time
}

// Planned next actions and booked appointments both count as scheduled
// actions; appointments carry the literal kind 'appointment'.
const scheduledActionQuery = `
	SELECT id, lead_id, merchant_id, lead_name, action_kind, action_at FROM (
		SELECT a.id, a.lead_id, a.merchant_id,
			trim(l.last_name || ' ' || l.first_name) AS lead_name,
			a.next_action_kind AS action_kind, a.next_action_at AS action_at
		FROM assignments a
		JOIN leads l ON l.id = a.lead_id
		WHERE a.status = 'delivered'
			AND a.next_action_at IS NOT NULL
			AND a.next_action_kind IS NOT NULL
			AND NOT EXISTS (SELECT 1 FROM archive_marks m WHERE m.assignment_id = a.id)
		UNION ALL
		SELECT a.id, a.lead_id, a.merchant_id,
			trim(l.last_name || ' ' || l.first_name),
			'appointment', a.appointment_at
		FROM assignments a
		JOIN leads l ON l.id = a.lead_id
		WHERE a.status = 'delivered'
			AND a.appointment_at IS NOT NULL
			AND NOT EXISTS (SELECT 1 FROM archive_marks m WHERE m.assignment_id = a.id)
	) actions
	WHERE action_at >= $1 AND action_at < $2
	ORDER BY merchant_id, action_at ASC`

// ListActionsBetween returns every planned action and appointment in
// [from, to), open assignments only, grouped by merchant via sort order.
// Feeds the daily digests and the per-minute reminder scan.
func (r *Repository) ListActionsBetween(ctx context.Context, from, to time.Time) ([]ScheduledAction, error) {
	rows, err := r.pool.Query(ctx, scheduledActionQuery, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	actions := make([]ScheduledAction, 0)
	for rows.Next() {
		var sa ScheduledAction
		if err := rows.Scan(&sa.AssignmentID, &sa.LeadID, &sa.MerchantID, &sa.LeadName, &sa.ActionKind, &sa.ActionAt); err != nil {
			return nil, err
		}
		actions = append(actions, sa)
	}
	return actions, rows.Err()
}
