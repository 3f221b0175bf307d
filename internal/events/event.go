// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"leadhub/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Assignment Domain Events
// =============================================================================

// AssignmentDelivered is published when a lead is delivered to a merchant.
type AssignmentDelivered struct {
	BaseEvent
	AssignmentID uuid.UUID `json:"assignmentId"`
	LeadID       uuid.UUID `json:"leadId"`
	MerchantID   uuid.UUID `json:"merchantId"`
	Rank         int       `json:"rank"`
	DeliveredAt  time.Time `json:"deliveredAt"`
}

func (e AssignmentDelivered) EventName() string { return "assignments.delivered" }

// DetailStatusChanged is published whenever an assignment's detail status moves.
// The standing projection and notification digests both key off this.
type DetailStatusChanged struct {
	BaseEvent
	AssignmentID uuid.UUID `json:"assignmentId"`
	LeadID       uuid.UUID `json:"leadId"`
	MerchantID   uuid.UUID `json:"merchantId"`
	Previous     string    `json:"previous"`
	Current      string    `json:"current"`
}

func (e DetailStatusChanged) EventName() string { return "assignments.detail_status.changed" }

// ContractReported is published when a merchant submits a contract report.
type ContractReported struct {
	BaseEvent
	AssignmentID   uuid.UUID `json:"assignmentId"`
	LeadID         uuid.UUID `json:"leadId"`
	MerchantID     uuid.UUID `json:"merchantId"`
	ReportType     string    `json:"reportType"`
	ContractAmount int64     `json:"contractAmount"`
}

func (e ContractReported) EventName() string { return "assignments.contract.reported" }

// =============================================================================
// Cancellation Workflow Events
// =============================================================================

// CancellationDecided is published when an admin resolves a cancellation request.
type CancellationDecided struct {
	BaseEvent
	RequestID    uuid.UUID `json:"requestId"`
	AssignmentID uuid.UUID `json:"assignmentId"`
	LeadID       uuid.UUID `json:"leadId"`
	MerchantID   uuid.UUID `json:"merchantId"`
	Approved     bool      `json:"approved"`
	Rationale    string    `json:"rationale,omitempty"`
}

func (e CancellationDecided) EventName() string { return "cancellations.decided" }

// =============================================================================
// Extension Workflow Events
// =============================================================================

// ExtensionDecided is published when an admin resolves an extension request.
type ExtensionDecided struct {
	BaseEvent
	RequestID        uuid.UUID  `json:"requestId"`
	AssignmentID     uuid.UUID  `json:"assignmentId"`
	LeadID           uuid.UUID  `json:"leadId"`
	MerchantID       uuid.UUID  `json:"merchantId"`
	Approved         bool       `json:"approved"`
	ExtendedDeadline *time.Time `json:"extendedDeadline,omitempty"`
	Rationale        string     `json:"rationale,omitempty"`
}

func (e ExtensionDecided) EventName() string { return "extensions.decided" }

// =============================================================================
// Scheduler Events
// =============================================================================

// DigestItem is one line of a daily action digest.
type DigestItem struct {
	AssignmentID uuid.UUID `json:"assignmentId"`
	LeadID       uuid.UUID `json:"leadId"`
	LeadName     string    `json:"leadName"`
	ActionKind   string    `json:"actionKind"`
	ActionAt     time.Time `json:"actionAt"`
}

// DigestDue is published by the scheduler when a merchant's daily digest
// should be dispatched. Slot is "morning" (same-day) or "evening" (next-day).
type DigestDue struct {
	BaseEvent
	MerchantID uuid.UUID    `json:"merchantId"`
	Slot       string       `json:"slot"`
	Items      []DigestItem `json:"items"`
}

func (e DigestDue) EventName() string { return "scheduler.digest.due" }

// ActionReminderDue is published by the per-minute scan for a scheduled
// action that is about to come due and has not had a reminder sent.
type ActionReminderDue struct {
	BaseEvent
	AssignmentID uuid.UUID `json:"assignmentId"`
	LeadID       uuid.UUID `json:"leadId"`
	MerchantID   uuid.UUID `json:"merchantId"`
	LeadName     string    `json:"leadName"`
	ActionKind   string    `json:"actionKind"`
	ActionAt     time.Time `json:"actionAt"`
}

func (e ActionReminderDue) EventName() string { return "scheduler.reminder.due" }
