// Package channel implements the delivery transports behind the
// notification router: rich messaging, browser push and SMS.
package channel

import (
	"context"

	"github.com/google/uuid"
)

// Target identifies one recipient.
type Target struct {
	UserID     uuid.UUID
	MerchantID uuid.UUID
	Phone      string
}

// Message is the channel-independent payload.
type Message struct {
	Title     string
	Body      string
	AlertType string
	LeadID    *uuid.UUID
}

// Channel names, used in the delivery log.
const (
	NameMessaging = "messaging"
	NameWebPush   = "webpush"
	NameSMS       = "sms"
	// NameNone marks the log row written when no channel was available.
	NameNone = "none"
)

// Channel is one delivery transport. Provisioned distinguishes "skip
// silently" from a real attempt: an unprovisioned or globally disabled
// channel produces no delivery-log row.
type Channel interface {
	Name() string
	Provisioned(ctx context.Context, target Target) (bool, error)
	// Send attempts delivery once and returns the address attempted.
	Send(ctx context.Context, target Target, msg Message) (string, error)
}
