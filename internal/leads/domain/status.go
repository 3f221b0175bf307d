// Package domain holds the assignment lifecycle model: the closed status
// enums, the forward-only transition table, and the deadline math anchored
// to delivery time.
package domain

// Status is the coarse assignment-level outcome visible to distribution.
type Status string

const (
	StatusDelivered      Status = "delivered"
	StatusDeclined       Status = "declined"
	StatusContracted     Status = "contracted"
	StatusCancelApproved Status = "cancel_approved"
)

// Terminal reports whether a status is in the terminal set. Terminal
// statuses are never left except by explicit admin override, which is
// not part of this service.
func (s Status) Terminal() bool {
	switch s {
	case StatusDeclined, StatusContracted, StatusCancelApproved:
		return true
	}
	return false
}

// Valid reports whether the value is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDelivered, StatusDeclined, StatusContracted, StatusCancelApproved:
		return true
	}
	return false
}

// DetailStatus is the fine-grained pursuit-progress state of an assignment.
type DetailStatus string

const (
	DetailUnhandled         DetailStatus = "unhandled"
	DetailPursuing          DetailStatus = "pursuing"
	DetailAppointmentSet    DetailStatus = "appointment_set"
	DetailVisited           DetailStatus = "visited"
	DetailEstimateSubmitted DetailStatus = "estimate_submitted"
	DetailReviewing         DetailStatus = "reviewing"
	DetailNegotiating       DetailStatus = "negotiating"
	DetailContracted        DetailStatus = "contracted"
	DetailPaymentPending    DetailStatus = "payment_pending"
	DetailCompleted         DetailStatus = "completed"
	DetailDeclined          DetailStatus = "declined"
	DetailCancelled         DetailStatus = "cancelled"
)

// detailRank orders detail statuses along the pursuit pipeline. Transitions
// may only move to a strictly higher rank; statuses sharing a rank are
// alternative outcomes, not steps.
var detailRank = map[DetailStatus]int{
	DetailUnhandled:         0,
	DetailPursuing:          1,
	DetailAppointmentSet:    2,
	DetailVisited:           3,
	DetailEstimateSubmitted: 4,
	DetailReviewing:         5,
	DetailNegotiating:       6,
	DetailContracted:        7,
	DetailPaymentPending:    8,
	DetailCompleted:         9,
	DetailDeclined:          7,
	DetailCancelled:         7,
}

// Valid reports whether the value is a known detail status.
func (d DetailStatus) Valid() bool {
	_, ok := detailRank[d]
	return ok
}

// Closed reports whether the assignment no longer counts as an open pursuit.
// Used by the competitor inspector and by extension eligibility.
func (d DetailStatus) Closed() bool {
	switch d {
	case DetailContracted, DetailPaymentPending, DetailCompleted, DetailDeclined, DetailCancelled:
		return true
	}
	return false
}

// ActivePursuit reports whether the detail status indicates the merchant is
// actively working the lead. Feeds the competitor-activity flags.
func (d DetailStatus) ActivePursuit() bool {
	switch d {
	case DetailPursuing, DetailAppointmentSet, DetailVisited,
		DetailEstimateSubmitted, DetailReviewing, DetailNegotiating:
		return true
	}
	return false
}

// CanTransition reports whether moving from -> to is a legal forward step.
// The graph is monotonic: no input resurrects a closed assignment, and the
// post-contract progression contracted -> payment_pending -> completed is
// the only path out of contracted.
func CanTransition(from, to DetailStatus) bool {
	fromRank, ok := detailRank[from]
	if !ok {
		return false
	}
	toRank, ok := detailRank[to]
	if !ok {
		return false
	}

	if from == to {
		return false
	}

	// Declined and cancelled are dead ends.
	if from == DetailDeclined || from == DetailCancelled {
		return false
	}

	// Once contracted, only the payment progression remains.
	if from == DetailContracted {
		return to == DetailPaymentPending || to == DetailCompleted
	}
	if from == DetailPaymentPending {
		return to == DetailCompleted
	}
	if from == DetailCompleted {
		return false
	}

	return toRank > fromRank
}

// StatusFor projects the coarse status implied by a detail status, or
// returns ok=false when the detail status does not force a coarse change.
func StatusFor(d DetailStatus) (Status, bool) {
	switch d {
	case DetailContracted, DetailPaymentPending, DetailCompleted:
		return StatusContracted, true
	case DetailDeclined:
		return StatusDeclined, true
	case DetailCancelled:
		return StatusCancelApproved, true
	}
	return "", false
}

// ReportType distinguishes contract report submissions.
type ReportType string

const (
	ReportTypeContract       ReportType = "contract"
	ReportTypeAdditionalWork ReportType = "additional_work"
)

// ReportStatus is the merchant-facing progress value on a contract report.
type ReportStatus string

const (
	ReportPreContract         ReportStatus = "pre_contract"
	ReportPostContractPreWork ReportStatus = "post_contract_pre_work"
	ReportInProgress          ReportStatus = "in_progress"
	ReportPostCompletion      ReportStatus = "post_completion"
)

// DetailStatusForReport maps a contract-report progress value onto the
// assignment detail status.
func DetailStatusForReport(rs ReportStatus) (DetailStatus, bool) {
	switch rs {
	case ReportPreContract:
		return DetailNegotiating, true
	case ReportPostContractPreWork, ReportInProgress:
		return DetailPaymentPending, true
	case ReportPostCompletion:
		return DetailCompleted, true
	}
	return "", false
}

// ContactKind labels entries in the contact history.
type ContactKind string

const (
	ContactCall  ContactKind = "call"
	ContactSMS   ContactKind = "sms"
	ContactMail  ContactKind = "mail"
	ContactVisit ContactKind = "visit"
)

// Valid reports whether the value is a known contact kind.
func (k ContactKind) Valid() bool {
	switch k {
	case ContactCall, ContactSMS, ContactMail, ContactVisit:
		return true
	}
	return false
}
