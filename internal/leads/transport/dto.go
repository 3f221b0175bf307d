// Package transport defines the request and response DTOs for the leads API.
package transport

import (
	"time"

	"leadhub/internal/leads/repository"

	"github.com/google/uuid"
)

type CaseResponse struct {
	AssignmentID    uuid.UUID  `json:"assignmentId"`
	LeadID          uuid.UUID  `json:"leadId"`
	LeadName        string     `json:"leadName,omitempty"`
	LeadPhone       string     `json:"leadPhone,omitempty"`
	Prefecture      string     `json:"prefecture,omitempty"`
	City            string     `json:"city,omitempty"`
	WorkCategory    string     `json:"workCategory,omitempty"`
	BudgetRange     string     `json:"budgetRange,omitempty"`
	DeliveredAt     time.Time  `json:"deliveredAt"`
	Rank            int        `json:"rank"`
	Status          string     `json:"status"`
	DetailStatus    string     `json:"detailStatus"`
	CallCount       int        `json:"callCount"`
	SMSCount        int        `json:"smsCount"`
	MailCount       int        `json:"mailCount"`
	VisitCount      int        `json:"visitCount"`
	LastContactAt   *time.Time `json:"lastContactAt,omitempty"`
	NextActionAt    *time.Time `json:"nextActionAt,omitempty"`
	NextActionKind  *string    `json:"nextActionKind,omitempty"`
	AppointmentAt   *time.Time `json:"appointmentAt,omitempty"`
	WorkingDeadline time.Time  `json:"workingDeadline"`
	ContractAmount  *int64     `json:"contractAmount,omitempty"`
}

func FromAssignment(a repository.Assignment) CaseResponse {
	return CaseResponse{
		AssignmentID:    a.ID,
		LeadID:          a.LeadID,
		DeliveredAt:     a.DeliveredAt,
		Rank:            a.Rank,
		Status:          string(a.Status),
		DetailStatus:    string(a.DetailStatus),
		CallCount:       a.CallCount,
		SMSCount:        a.SMSCount,
		MailCount:       a.MailCount,
		VisitCount:      a.VisitCount,
		LastContactAt:   a.LastContactAt,
		NextActionAt:    a.NextActionAt,
		NextActionKind:  a.NextActionKind,
		AppointmentAt:   a.AppointmentAt,
		WorkingDeadline: a.WorkingDeadline,
		ContractAmount:  a.ContractAmount,
	}
}

func FromAssignmentWithLead(a repository.AssignmentWithLead) CaseResponse {
	resp := FromAssignment(a.Assignment)
	resp.LeadName = a.LeadName
	resp.LeadPhone = a.LeadPhone
	resp.Prefecture = a.Prefecture
	resp.City = a.City
	resp.WorkCategory = a.WorkCategory
	resp.BudgetRange = a.BudgetRange
	return resp
}

type DeliverLeadRequest struct {
	LeadID     uuid.UUID `json:"leadId" validate:"required"`
	MerchantID uuid.UUID `json:"merchantId" validate:"required"`
}

type UpdateDetailStatusRequest struct {
	AssignmentID  uuid.UUID `json:"assignmentId" validate:"required"`
	MerchantID    uuid.UUID `json:"merchantId" validate:"required"`
	CurrentStatus string    `json:"currentStatus" validate:"required"`
	NextStatus    string    `json:"nextStatus" validate:"required"`
}

type ContractReportRequest struct {
	AssignmentID   uuid.UUID `json:"assignmentId" validate:"required"`
	MerchantID     uuid.UUID `json:"merchantId" validate:"required"`
	ReportType     string    `json:"reportType" validate:"required,oneof=contract additional_work"`
	ReportStatus   string    `json:"reportStatus" validate:"required,oneof=pre_contract post_contract_pre_work in_progress post_completion"`
	ContractAmount int64     `json:"contractAmount" validate:"gte=0"`
}

type RecordContactRequest struct {
	AssignmentID uuid.UUID  `json:"assignmentId" validate:"required"`
	MerchantID   uuid.UUID  `json:"merchantId" validate:"required"`
	Kind         string     `json:"kind" validate:"required,oneof=call sms mail visit"`
	Note         string     `json:"note" validate:"max=2000"`
	ContactedAt  *time.Time `json:"contactedAt"`
}

type ContactLogResponse struct {
	ID          uuid.UUID `json:"id"`
	Kind        string    `json:"kind"`
	Note        string    `json:"note,omitempty"`
	ContactedAt time.Time `json:"contactedAt"`
}

func FromContactLog(log repository.ContactLog) ContactLogResponse {
	return ContactLogResponse{
		ID:          log.ID,
		Kind:        string(log.Kind),
		Note:        log.Note,
		ContactedAt: log.ContactedAt,
	}
}

type SetScheduleRequest struct {
	AssignmentID   uuid.UUID  `json:"assignmentId" validate:"required"`
	MerchantID     uuid.UUID  `json:"merchantId" validate:"required"`
	NextActionAt   *time.Time `json:"nextActionAt"`
	NextActionKind *string    `json:"nextActionKind" validate:"omitempty,oneof=call sms mail visit"`
	AppointmentAt  *time.Time `json:"appointmentAt"`
}

// CompetitorEntry is one competing merchant's open assignment on the same
// lead, in delivery-rank order.
type CompetitorEntry struct {
	MerchantID    uuid.UUID  `json:"merchantId"`
	Rank          int        `json:"rank"`
	DetailStatus  string     `json:"detailStatus"`
	CallCount     int        `json:"callCount"`
	LastContactAt *time.Time `json:"lastContactAt,omitempty"`
	AppointmentAt *time.Time `json:"appointmentAt,omitempty"`
	Active        bool       `json:"active"`
}

// CompetitorSummary covers the open competing assignments on a lead. Closed
// rows are excluded from the counts and entries; AnyContracted is the one
// signal that survives closure.
type CompetitorSummary struct {
	Competitors       int               `json:"competitors"`
	ActiveCompetitors int               `json:"activeCompetitors"`
	AnyContracted     bool              `json:"anyContracted"`
	Entries           []CompetitorEntry `json:"entries"`
}

// HasActivity reports whether any competitor is actively working the lead.
func (s CompetitorSummary) HasActivity() bool {
	return s.ActiveCompetitors > 0
}
