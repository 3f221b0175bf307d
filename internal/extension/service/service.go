// Package service implements the deadline extension workflow.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadhub/internal/events"
	extrepo "leadhub/internal/extension/repository"
	"leadhub/internal/extension/transport"
	"leadhub/internal/leads/domain"
	leadsrepo "leadhub/internal/leads/repository"
	"leadhub/internal/rationale"
	"leadhub/platform/apperr"
	"leadhub/platform/logger"

	"github.com/google/uuid"
)

// ApprovalGate is the slice of the approval module this workflow uses.
type ApprovalGate interface {
	RequestDecision(ctx context.Context, kind string, requestID uuid.UUID, summary string) error
}

const decisionKind = "extension"

// Detail statuses from which an extension may be requested. Statuses with
// appointment or visit progress get no extension; the lead is being worked.
var extendableStatuses = map[domain.DetailStatus]bool{
	domain.DetailUnhandled:         true,
	domain.DetailPursuing:          true,
	domain.DetailEstimateSubmitted: true,
	domain.DetailReviewing:         true,
}

type Service struct {
	repo      *extrepo.Repository
	leads     *leadsrepo.Repository
	gate      ApprovalGate
	rationale *rationale.Generator
	bus       events.Bus
	log       *logger.Logger
	loc       *time.Location
}

func New(
	repo *extrepo.Repository,
	leads *leadsrepo.Repository,
	gate ApprovalGate,
	gen *rationale.Generator,
	bus events.Bus,
	log *logger.Logger,
	loc *time.Location,
) *Service {
	return &Service{
		repo:      repo,
		leads:     leads,
		gate:      gate,
		rationale: gen,
		bus:       bus,
		log:       log,
		loc:       loc,
	}
}

// ListEligibleCases returns the merchant's assignments an extension can be
// requested for right now.
func (s *Service) ListEligibleCases(ctx context.Context, merchantID uuid.UUID) ([]transport.EligibleCaseResponse, error) {
	candidates, err := s.repo.ListEligibleCandidates(ctx, merchantID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	out := make([]transport.EligibleCaseResponse, 0, len(candidates))
	for _, c := range candidates {
		if !domain.WithinRequestWindow(c.DeliveredAt, now, s.loc) {
			continue
		}
		out = append(out, transport.EligibleCaseResponse{
			AssignmentID:     c.AssignmentID,
			LeadID:           c.LeadID,
			LeadName:         c.LeadName,
			DeliveredAt:      c.DeliveredAt,
			DetailStatus:     string(c.DetailStatus),
			WorkingDeadline:  c.WorkingDeadline,
			WindowEndsAt:     domain.RequestWindowEnd(c.DeliveredAt, s.loc),
			ExtendedDeadline: domain.ExtendedDeadline(c.DeliveredAt, s.loc),
		})
	}
	return out, nil
}

// Submit creates a pending extension request. The extended deadline is
// computed from delivered_at alone and stored on the request so approval
// stamps exactly what the merchant was shown.
func (s *Service) Submit(ctx context.Context, req transport.SubmitRequest) (transport.RequestResponse, error) {
	contactDate, err := time.ParseInLocation("2006-01-02", req.ContactDate, s.loc)
	if err != nil {
		return transport.RequestResponse{}, apperr.Validation("contactDate must be YYYY-MM-DD")
	}
	appointmentDate, err := time.ParseInLocation("2006-01-02", req.AppointmentDate, s.loc)
	if err != nil {
		return transport.RequestResponse{}, apperr.Validation("appointmentDate must be YYYY-MM-DD")
	}
	if appointmentDate.Before(contactDate) {
		return transport.RequestResponse{}, apperr.Validation("appointmentDate must not precede contactDate")
	}

	a, err := s.leads.GetAssignmentForMerchant(ctx, req.AssignmentID, req.MerchantID)
	if err != nil {
		if errors.Is(err, leadsrepo.ErrNotFound) {
			return transport.RequestResponse{}, apperr.NotFound("assignment not found")
		}
		return transport.RequestResponse{}, err
	}

	reasons, err := s.checkRules(ctx, a)
	if err != nil {
		return transport.RequestResponse{}, err
	}
	if len(reasons) > 0 {
		return transport.RequestResponse{}, apperr.Precondition("extension request not eligible").WithDetails(reasons)
	}

	created, err := s.repo.Create(ctx, extrepo.CreateParams{
		AssignmentID:     a.ID,
		ContactDate:      contactDate,
		AppointmentDate:  appointmentDate,
		Justification:    req.Justification,
		ExtendedDeadline: domain.ExtendedDeadline(a.DeliveredAt, s.loc),
	})
	if err != nil {
		if errors.Is(err, extrepo.ErrDuplicate) {
			return transport.RequestResponse{}, apperr.Conflict("an extension request already exists for this assignment")
		}
		return transport.RequestResponse{}, err
	}

	summary := s.decisionSummary(ctx, a, created)
	if err := s.gate.RequestDecision(ctx, decisionKind, created.ID, summary); err != nil {
		s.log.Error("forwarding extension decision failed, request stays pending",
			"request_id", created.ID, "error", err)
	}

	return transport.FromRequest(created), nil
}

// checkRules returns every violated eligibility rule.
func (s *Service) checkRules(ctx context.Context, a leadsrepo.Assignment) ([]string, error) {
	reasons := make([]string, 0, 4)

	if a.Status != domain.StatusDelivered {
		reasons = append(reasons, fmt.Sprintf("assignment status is %s, not delivered", a.Status))
	}
	if !extendableStatuses[a.DetailStatus] {
		reasons = append(reasons, fmt.Sprintf("detail status %s does not allow an extension", a.DetailStatus))
	}
	if !domain.WithinRequestWindow(a.DeliveredAt, time.Now(), s.loc) {
		reasons = append(reasons, "request window has closed")
	}

	prior, err := s.repo.HasPendingOrApproved(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	if prior {
		reasons = append(reasons, "an extension request already exists for this assignment")
	}

	openCancellation, err := s.repo.HasOpenCancellation(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	if openCancellation {
		reasons = append(reasons, "a cancellation request is open for this assignment")
	}

	return reasons, nil
}

func (s *Service) decisionSummary(ctx context.Context, a leadsrepo.Assignment, req extrepo.Request) string {
	leadName := "unknown lead"
	if lead, err := s.leads.GetLead(ctx, a.LeadID); err == nil {
		leadName = lead.LastName + " " + lead.FirstName
	}

	return fmt.Sprintf(
		"Deadline extension request for %s\nLast contact: %s\nPlanned appointment: %s\nJustification: %s\nCurrent deadline: %s\nExtended deadline: %s",
		leadName,
		req.ContactDate.Format("2006-01-02"),
		req.AppointmentDate.Format("2006-01-02"),
		req.Justification,
		a.WorkingDeadline.In(s.loc).Format("2006-01-02 15:04"),
		req.ExtendedDeadline.In(s.loc).Format("2006-01-02 15:04"),
	)
}

// GetRequest returns one request, for merchant polling.
func (s *Service) GetRequest(ctx context.Context, id uuid.UUID) (transport.RequestResponse, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, extrepo.ErrNotFound) {
			return transport.RequestResponse{}, apperr.NotFound("extension request not found")
		}
		return transport.RequestResponse{}, err
	}
	return transport.FromRequest(req), nil
}

// ApplyDecision is the approval-gate cascade for extension decisions.
// Approval stamps the stored extended deadline onto the assignment under an
// optimistic check on the current deadline.
func (s *Service) ApplyDecision(ctx context.Context, requestID uuid.UUID, approved bool, approver string) error {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	a, err := s.leads.GetAssignment(ctx, req.AssignmentID)
	if err != nil {
		return err
	}

	var rationaleText *string
	if approved {
		if err := s.leads.SetWorkingDeadline(ctx, a.ID, a.WorkingDeadline, req.ExtendedDeadline); err != nil {
			if errors.Is(err, leadsrepo.ErrStale) {
				return apperr.Conflict("working deadline changed before the decision was applied")
			}
			return err
		}
	} else {
		text := s.rationale.RejectionRationale(ctx, rationale.Input{
			Kind:       decisionKind,
			CallCount:  a.CallCount,
			SMSCount:   a.SMSCount,
			MailCount:  a.MailCount,
			VisitCount: a.VisitCount,
		})
		rationaleText = &text
	}

	status := "rejected"
	if approved {
		status = "approved"
	}
	applied, err := s.repo.Resolve(ctx, req.ID, status, approver, rationaleText)
	if err != nil {
		return err
	}
	if !applied {
		return apperr.Conflict("extension request was already decided")
	}

	decided := events.ExtensionDecided{
		BaseEvent:    events.NewBaseEvent(),
		RequestID:    req.ID,
		AssignmentID: a.ID,
		LeadID:       a.LeadID,
		MerchantID:   a.MerchantID,
		Approved:     approved,
	}
	if approved {
		decided.ExtendedDeadline = &req.ExtendedDeadline
	} else if rationaleText != nil {
		decided.Rationale = *rationaleText
	}
	s.bus.Publish(ctx, decided)
	return nil
}
