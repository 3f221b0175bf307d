// Package transport defines the request and response DTOs for the deadline
// extension workflow API.
package transport

import (
	"time"

	"leadhub/internal/extension/repository"

	"github.com/google/uuid"
)

type EligibleCaseResponse struct {
	AssignmentID     uuid.UUID `json:"assignmentId"`
	LeadID           uuid.UUID `json:"leadId"`
	LeadName         string    `json:"leadName"`
	DeliveredAt      time.Time `json:"deliveredAt"`
	DetailStatus     string    `json:"detailStatus"`
	WorkingDeadline  time.Time `json:"workingDeadline"`
	WindowEndsAt     time.Time `json:"windowEndsAt"`
	ExtendedDeadline time.Time `json:"extendedDeadline"`
}

type SubmitRequest struct {
	AssignmentID    uuid.UUID `json:"assignmentId" validate:"required"`
	MerchantID      uuid.UUID `json:"merchantId" validate:"required"`
	ContactDate     string    `json:"contactDate" validate:"required,datetime=2006-01-02"`
	AppointmentDate string    `json:"appointmentDate" validate:"required,datetime=2006-01-02"`
	Justification   string    `json:"justification" validate:"required,min=10,max=2000"`
}

type RequestResponse struct {
	ID                 uuid.UUID  `json:"id"`
	AssignmentID       uuid.UUID  `json:"assignmentId"`
	ContactDate        string     `json:"contactDate"`
	AppointmentDate    string     `json:"appointmentDate"`
	Justification      string     `json:"justification"`
	ExtendedDeadline   time.Time  `json:"extendedDeadline"`
	Status             string     `json:"status"`
	DecidedAt          *time.Time `json:"decidedAt,omitempty"`
	RejectionRationale *string    `json:"rejectionRationale,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

func FromRequest(r repository.Request) RequestResponse {
	return RequestResponse{
		ID:                 r.ID,
		AssignmentID:       r.AssignmentID,
		ContactDate:        r.ContactDate.Format("2006-01-02"),
		AppointmentDate:    r.AppointmentDate.Format("2006-01-02"),
		Justification:      r.Justification,
		ExtendedDeadline:   r.ExtendedDeadline,
		Status:             r.Status,
		DecidedAt:          r.DecidedAt,
		RejectionRationale: r.RejectionRationale,
		CreatedAt:          r.CreatedAt,
	}
}
