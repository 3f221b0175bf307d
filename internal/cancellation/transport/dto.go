// Package transport defines the request and response DTOs for the
// cancellation workflow API.
package transport

import (
	"time"

	"leadhub/internal/cancellation/repository"

	"github.com/google/uuid"
)

type EligibilityResponse struct {
	Eligible     bool      `json:"eligible"`
	Reasons      []string  `json:"reasons,omitempty"`
	WindowEndsAt time.Time `json:"windowEndsAt"`
}

type SubmitRequest struct {
	AssignmentID   uuid.UUID `json:"assignmentId" validate:"required"`
	MerchantID     uuid.UUID `json:"merchantId" validate:"required"`
	ReasonCategory string    `json:"reasonCategory" validate:"required,oneof=unreachable duplicate out_of_area invalid_request budget_mismatch other"`
	ReasonDetail   string    `json:"reasonDetail" validate:"max=2000"`
}

type RequestResponse struct {
	ID                 uuid.UUID  `json:"id"`
	AssignmentID       uuid.UUID  `json:"assignmentId"`
	ReasonCategory     string     `json:"reasonCategory"`
	ReasonDetail       string     `json:"reasonDetail,omitempty"`
	CallCountSnapshot  int        `json:"callCountSnapshot"`
	SMSCountSnapshot   int        `json:"smsCountSnapshot"`
	MailCountSnapshot  int        `json:"mailCountSnapshot"`
	VisitCountSnapshot int        `json:"visitCountSnapshot"`
	Status             string     `json:"status"`
	DecidedAt          *time.Time `json:"decidedAt,omitempty"`
	RejectionRationale *string    `json:"rejectionRationale,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

func FromRequest(r repository.Request) RequestResponse {
	return RequestResponse{
		ID:                 r.ID,
		AssignmentID:       r.AssignmentID,
		ReasonCategory:     r.ReasonCategory,
		ReasonDetail:       r.ReasonDetail,
		CallCountSnapshot:  r.CallCountSnapshot,
		SMSCountSnapshot:   r.SMSCountSnapshot,
		MailCountSnapshot:  r.MailCountSnapshot,
		VisitCountSnapshot: r.VisitCountSnapshot,
		Status:             r.Status,
		DecidedAt:          r.DecidedAt,
		RejectionRationale: r.RejectionRationale,
		CreatedAt:          r.CreatedAt,
	}
}
