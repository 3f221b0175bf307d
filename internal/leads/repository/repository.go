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
	ErrNotFound = errors.New("assignment not found")
	// ErrStale is returned when a conditional update matched no rows because
	// another writer got there first.
	ErrStale = errors.New("assignment state changed concurrently")
	// ErrContractTaken surfaces the partial unique index allowing one
	// contracted assignment per lead.
	ErrContractTaken = errors.New("lead is already contracted by another merchant")
	// ErrDuplicateAssignment surfaces the unique pair constraint: a merchant
	// holds at most one assignment on a lead.
	ErrDuplicateAssignment = errors.New("merchant already holds an assignment on this lead")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID           uuid.UUID
	FirstName    string
	LastName     string
	Phone        string
	Email        string
	Prefecture   string
	City         string
	Address      string
	PropertyType string
	WorkCategory string
	BudgetRange  string
	IntakeStatus string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Assignment struct {
	ID              uuid.UUID
	LeadID          uuid.UUID
	MerchantID      uuid.UUID
	DeliveredAt     time.Time
	Rank            int
	Status          domain.Status
	DetailStatus    domain.DetailStatus
	CallCount       int
	SMSCount        int
	MailCount       int
	VisitCount      int
	LastContactAt   *time.Time
	NextActionAt    *time.Time
	NextActionKind  *string
	AppointmentAt   *time.Time
	WorkingDeadline time.Time
	ContractAmount  *int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AssignmentWithLead joins the lead identity columns merchants see in lists.
type AssignmentWithLead struct {
	Assignment
	LeadName     string
	LeadPhone    string
	Prefecture   string
	City         string
	WorkCategory string
	BudgetRange  string
}

const assignmentColumns = `
	a.id, a.lead_id, a.merchant_id, a.delivered_at, a.rank, a.status, a.detail_status,
	a.call_count, a.sms_count, a.mail_count, a.visit_count,
	a.last_contact_at, a.next_action_at, a.next_action_kind, a.appointment_at,
	a.working_deadline, a.contract_amount, a.created_at, a.updated_at`

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	err := row.Scan(
		&a.ID, &a.LeadID, &a.MerchantID, &a.DeliveredAt, &a.Rank, &a.Status, &a.DetailStatus,
		&a.CallCount, &a.SMSCount, &a.MailCount, &a.VisitCount,
		&a.LastContactAt, &a.NextActionAt, &a.NextActionKind, &a.AppointmentAt,
		&a.WorkingDeadline, &a.ContractAmount, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Assignment{}, ErrNotFound
	}
	return a, err
}

// CreateAssignment inserts a fresh delivery row. Rank is the delivery order
// on the lead, derived at insert time.
func (r *Repository) CreateAssignment(ctx context.Context, leadID, merchantID uuid.UUID, deliveredAt, workingDeadline time.Time) (Assignment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO assignments AS a (lead_id, merchant_id, delivered_at, rank, working_deadline)
		VALUES ($1, $2, $3, (SELECT count(*) + 1 FROM assignments WHERE lead_id = $1), $4)
		RETURNING `+assignmentColumns, leadID, merchantID, deliveredAt, workingDeadline)

	a, err := scanAssignment(row)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Assignment{}, ErrDuplicateAssignment
	}
	return a, err
}

func (r *Repository) GetAssignment(ctx context.Context, id uuid.UUID) (Assignment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+assignmentColumns+`
		FROM assignments a WHERE a.id = $1
	`, id)
	return scanAssignment(row)
}

// GetAssignmentForMerchant scopes the lookup to the owning merchant so one
// merchant can never read a competitor's row through the API.
func (r *Repository) GetAssignmentForMerchant(ctx context.Context, id, merchantID uuid.UUID) (Assignment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+assignmentColumns+`
		FROM assignments a WHERE a.id = $1 AND a.merchant_id = $2
	`, id, merchantID)
	return scanAssignment(row)
}

func (r *Repository) GetLead(ctx context.Context, id uuid.UUID) (Lead, error) {
	var l Lead
	err := r.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, phone, email, prefecture, city, address,
			property_type, work_category, budget_range, intake_status, created_at, updated_at
		FROM leads WHERE id = $1
	`, id).Scan(
		&l.ID, &l.FirstName, &l.LastName, &l.Phone, &l.Email, &l.Prefecture, &l.City, &l.Address,
		&l.PropertyType, &l.WorkCategory, &l.BudgetRange, &l.IntakeStatus, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return l, err
}

// ListDelivered returns a merchant's open cases, newest delivery first.
// Archived assignments are excluded unless includeArchived is set.
func (r *Repository) ListDelivered(ctx context.Context, merchantID uuid.UUID, includeArchived bool) ([]AssignmentWithLead, error) {
	query := `
		SELECT ` + assignmentColumns + `,
			trim(l.last_name || ' ' || l.first_name), l.phone, l.prefecture, l.city, l.work_category, l.budget_range
		FROM assignments a
		JOIN leads l ON l.id = a.lead_id
		WHERE a.merchant_id = $1 AND a.status = 'delivered'`
	if !includeArchived {
		query += `
		AND NOT EXISTS (SELECT 1 FROM archive_marks m WHERE m.assignment_id = a.id)`
	}
	query += `
		ORDER BY a.delivered_at DESC`

	rows, err := r.pool.Query(ctx, query, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]AssignmentWithLead, 0)
	for rows.Next() {
		var item AssignmentWithLead
		if err := rows.Scan(
			&item.ID, &item.LeadID, &item.MerchantID, &item.DeliveredAt, &item.Rank, &item.Status, &item.DetailStatus,
			&item.CallCount, &item.SMSCount, &item.MailCount, &item.VisitCount,
			&item.LastContactAt, &item.NextActionAt, &item.NextActionKind, &item.AppointmentAt,
			&item.WorkingDeadline, &item.ContractAmount, &item.CreatedAt, &item.UpdatedAt,
			&item.LeadName, &item.LeadPhone, &item.Prefecture, &item.City, &item.WorkCategory, &item.BudgetRange,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListByLead returns every assignment on a lead. Feeds the competitor
// activity inspector.
func (r *Repository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+assignmentColumns+`
		FROM assignments a WHERE a.lead_id = $1
		ORDER BY a.rank ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Assignment, 0)
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(
			&a.ID, &a.LeadID, &a.MerchantID, &a.DeliveredAt, &a.Rank, &a.Status, &a.DetailStatus,
			&a.CallCount, &a.SMSCount, &a.MailCount, &a.VisitCount,
			&a.LastContactAt, &a.NextActionAt, &a.NextActionKind, &a.AppointmentAt,
			&a.WorkingDeadline, &a.ContractAmount, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// UpdateDetailStatus moves detail_status with an optimistic check on the
// expected value. When the detail status forces a coarse status the same
// statement stamps it. ErrStale means another writer moved the row first;
// ErrContractTaken means the contracted slot on the lead is already held.
func (r *Repository) UpdateDetailStatus(ctx context.Context, id uuid.UUID, expected, next domain.DetailStatus) (Assignment, error) {
	status, forced := domain.StatusFor(next)

	var row pgx.Row
	if forced {
		row = r.pool.QueryRow(ctx, `
			UPDATE assignments a SET detail_status = $3, status = $4, updated_at = now()
			WHERE a.id = $1 AND a.detail_status = $2
			RETURNING `+assignmentColumns, id, expected, next, status)
	} else {
		row = r.pool.QueryRow(ctx, `
			UPDATE assignments a SET detail_status = $3, updated_at = now()
			WHERE a.id = $1 AND a.detail_status = $2
			RETURNING `+assignmentColumns, id, expected, next)
	}

	a, err := scanAssignment(row)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Assignment{}, ErrContractTaken
	}
	if errors.Is(err, ErrNotFound) {
		return Assignment{}, ErrStale
	}
	return a, err
}

// UpdateStatus conditionally moves the coarse status. Used by the
// cancellation applier (delivered -> cancel_approved) and decline.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next domain.Status) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE assignments SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
	`, id, expected, next)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStale
	}
	return nil
}

// SetWorkingDeadline stamps the extended deadline on approval. Conditional on
// the current deadline so two approvals cannot both win.
func (r *Repository) SetWorkingDeadline(ctx context.Context, id uuid.UUID, current, next time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE assignments SET working_deadline = $3, updated_at = now()
		WHERE id = $1 AND working_deadline = $2
	`, id, current, next)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStale
	}
	return nil
}

type ScheduleParams struct {
	NextActionAt   *time.Time
	NextActionKind *string
	AppointmentAt  *time.Time
}

// SetSchedule updates the planned next action and appointment fields.
func (r *Repository) SetSchedule(ctx context.Context, id uuid.UUID, params ScheduleParams) (Assignment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE assignments a
		SET next_action_at = $2, next_action_kind = $3, appointment_at = $4, updated_at = now()
		WHERE a.id = $1
		RETURNING `+assignmentColumns, id, params.NextActionAt, params.NextActionKind, params.AppointmentAt)
	return scanAssignment(row)
}

// SetContractAmount records the reported amount alongside a status move.
func (r *Repository) SetContractAmount(ctx context.Context, id uuid.UUID, amount int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE assignments SET contract_amount = $2, updated_at = now() WHERE id = $1
	`, id, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// OutcomeCounts aggregates a merchant's assignments by coarse outcome.
type OutcomeCounts struct {
	Open           int
	Contracted     int
	Declined       int
	CancelApproved int
}

func (r *Repository) MerchantOutcomeCounts(ctx context.Context, merchantID uuid.UUID) (OutcomeCounts, error) {
	var c OutcomeCounts
	err := r.pool.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE status = 'delivered'),
			count(*) FILTER (WHERE status = 'contracted'),
			count(*) FILTER (WHERE status = 'declined'),
			count(*) FILTER (WHERE status = 'cancel_approved')
		FROM assignments WHERE merchant_id = $1
	`, merchantID).Scan(&c.Open, &c.Contracted, &c.Declined, &c.CancelApproved)
	return c, err
}

// UpdateMerchantStanding persists the standing projection for a merchant.
func (r *Repository) UpdateMerchantStanding(ctx context.Context, merchantID uuid.UUID, standing, summary string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE merchants SET standing = $2, standing_summary = $3, updated_at = now()
		WHERE id = $1
	`, merchantID, standing, summary)
	return err
}
