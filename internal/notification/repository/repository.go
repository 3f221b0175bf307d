package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("notification record not found")

// Profile holds one merchant user's channel preferences. A user without a
// stored profile gets DefaultProfile.
type Profile struct {
	UserID            uuid.UUID
	MerchantID        uuid.UUID
	Phone             string
	MessagingEnabled  bool
	PushEnabled       bool
	SMSEnabled        bool
	AlertOptouts      []string
	QuietStartMinutes *int
	QuietEndMinutes   *int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// DefaultProfile is the behavior for users who never saved preferences:
// every channel enabled, no quiet hours.
func DefaultProfile(userID, merchantID uuid.UUID) Profile {
	return Profile{
		UserID:           userID,
		MerchantID:       merchantID,
		MessagingEnabled: true,
		PushEnabled:      true,
		SMSEnabled:       true,
		AlertOptouts:     []string{},
	}
}

// OptedOut reports whether the profile opted out of an alert type.
func (p Profile) OptedOut(alertType string) bool {
	for _, t := range p.AlertOptouts {
		if t == alertType {
			return true
		}
	}
	return false
}

type PushSubscription struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	MerchantID uuid.UUID
	Endpoint   string
	P256dh     string
	Auth       string
	CreatedAt  time.Time
}

// Event is one immutable delivery-log row.
type Event struct {
	ID            uuid.UUID
	Channel       string
	TargetUserID  *uuid.UUID
	TargetAddress string
	MerchantID    *uuid.UUID
	LeadID        *uuid.UUID
	AlertType     string
	Outcome       string
	FailureReason string
	CreatedAt     time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const profileColumns = `
	user_id, merchant_id, phone, messaging_enabled, push_enabled, sms_enabled,
	alert_optouts, quiet_start_minutes, quiet_end_minutes, created_at, updated_at`

func (r *Repository) GetProfile(ctx context.Context, userID, merchantID uuid.UUID) (Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM notification_profiles WHERE user_id = $1 AND merchant_id = $2
	`, userID, merchantID).Scan(
		&p.UserID, &p.MerchantID, &p.Phone, &p.MessagingEnabled, &p.PushEnabled, &p.SMSEnabled,
		&p.AlertOptouts, &p.QuietStartMinutes, &p.QuietEndMinutes, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	return p, err
}

// ListProfilesByMerchant returns every stored profile for a merchant.
// Merchant-targeted alerts fan out over this list.
func (r *Repository) ListProfilesByMerchant(ctx context.Context, merchantID uuid.UUID) ([]Profile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+profileColumns+`
		FROM notification_profiles WHERE merchant_id = $1
	`, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]Profile, 0)
	for rows.Next() {
		var p Profile
		if err := rows.Scan(
			&p.UserID, &p.MerchantID, &p.Phone, &p.MessagingEnabled, &p.PushEnabled, &p.SMSEnabled,
			&p.AlertOptouts, &p.QuietStartMinutes, &p.QuietEndMinutes, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (r *Repository) UpsertProfile(ctx context.Context, p Profile) (Profile, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO notification_profiles (
			user_id, merchant_id, phone, messaging_enabled, push_enabled, sms_enabled,
			alert_optouts, quiet_start_minutes, quiet_end_minutes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, merchant_id) DO UPDATE SET
			phone = EXCLUDED.phone,
			messaging_enabled = EXCLUDED.messaging_enabled,
			push_enabled = EXCLUDED.push_enabled,
			sms_enabled = EXCLUDED.sms_enabled,
			alert_optouts = EXCLUDED.alert_optouts,
			quiet_start_minutes = EXCLUDED.quiet_start_minutes,
			quiet_end_minutes = EXCLUDED.quiet_end_minutes,
			updated_at = now()
		RETURNING `+profileColumns,
		p.UserID, p.MerchantID, p.Phone, p.MessagingEnabled, p.PushEnabled, p.SMSEnabled,
		p.AlertOptouts, p.QuietStartMinutes, p.QuietEndMinutes,
	)
	var out Profile
	err := row.Scan(
		&out.UserID, &out.MerchantID, &out.Phone, &out.MessagingEnabled, &out.PushEnabled, &out.SMSEnabled,
		&out.AlertOptouts, &out.QuietStartMinutes, &out.QuietEndMinutes, &out.CreatedAt, &out.UpdatedAt,
	)
	return out, err
}

func (r *Repository) GetMessagingIdentity(ctx context.Context, userID, merchantID uuid.UUID) (string, error) {
	var externalID string
	err := r.pool.QueryRow(ctx, `
		SELECT external_id FROM messaging_identities WHERE user_id = $1 AND merchant_id = $2
	`, userID, merchantID).Scan(&externalID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return externalID, err
}

func (r *Repository) UpsertMessagingIdentity(ctx context.Context, userID, merchantID uuid.UUID, externalID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO messaging_identities (user_id, merchant_id, external_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, merchant_id) DO UPDATE SET external_id = EXCLUDED.external_id
	`, userID, merchantID, externalID)
	return err
}

func (r *Repository) DeleteMessagingIdentity(ctx context.Context, userID, merchantID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM messaging_identities WHERE user_id = $1 AND merchant_id = $2
	`, userID, merchantID)
	return err
}

func (r *Repository) ListPushSubscriptions(ctx context.Context, userID, merchantID uuid.UUID) ([]PushSubscription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, merchant_id, endpoint, p256dh, auth, created_at
		FROM push_subscriptions WHERE user_id = $1 AND merchant_id = $2
	`, userID, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := make([]PushSubscription, 0)
	for rows.Next() {
		var s PushSubscription
		if err := rows.Scan(&s.ID, &s.UserID, &s.MerchantID, &s.Endpoint, &s.P256dh, &s.Auth, &s.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *Repository) CreatePushSubscription(ctx context.Context, userID, merchantID uuid.UUID, endpoint, p256dh, auth string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO push_subscriptions (user_id, merchant_id, endpoint, p256dh, auth)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, merchant_id, endpoint) DO UPDATE SET
			p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth
	`, userID, merchantID, endpoint, p256dh, auth)
	return err
}

func (r *Repository) DeletePushSubscription(ctx context.Context, userID, merchantID uuid.UUID, endpoint string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM push_subscriptions WHERE user_id = $1 AND merchant_id = $2 AND endpoint = $3
	`, userID, merchantID, endpoint)
	return err
}

// DeletePushSubscriptionByEndpoint drops a subscription the push service
// reported gone.
func (r *Repository) DeletePushSubscriptionByEndpoint(ctx context.Context, endpoint string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM push_subscriptions WHERE endpoint = $1
	`, endpoint)
	return err
}

// InsertEvent appends one delivery-log row. The log is append-only.
func (r *Repository) InsertEvent(ctx context.Context, e Event) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notification_events (
			channel, target_user_id, target_address, merchant_id, lead_id,
			alert_type, outcome, failure_reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.Channel, e.TargetUserID, e.TargetAddress, e.MerchantID, e.LeadID, e.AlertType, e.Outcome, e.FailureReason)
	return err
}

func (r *Repository) ListEventsByMerchant(ctx context.Context, merchantID uuid.UUID, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, channel, target_user_id, target_address, merchant_id, lead_id,
			alert_type, outcome, failure_reason, created_at
		FROM notification_events
		WHERE merchant_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, merchantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Event, 0)
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Channel, &e.TargetUserID, &e.TargetAddress, &e.MerchantID, &e.LeadID,
			&e.AlertType, &e.Outcome, &e.FailureReason, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}
