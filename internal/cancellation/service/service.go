// Package service implements the cancellation workflow: eligibility checks,
// request submission with contact snapshots, and decision application.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	cancelrepo "leadhub/internal/cancellation/repository"
	"leadhub/internal/cancellation/transport"
	"leadhub/internal/events"
	"leadhub/internal/leads/domain"
	leadsrepo "leadhub/internal/leads/repository"
	leadsservice "leadhub/internal/leads/service"
	"leadhub/internal/rationale"
	"leadhub/platform/apperr"
	"leadhub/platform/logger"

	"github.com/google/uuid"
)

// ApprovalGate is the slice of the approval module this workflow uses.
type ApprovalGate interface {
	RequestDecision(ctx context.Context, kind string, requestID uuid.UUID, summary string) error
}

const decisionKind = "cancellation"

type Service struct {
	repo      *cancelrepo.Repository
	leads     *leadsrepo.Repository
	inspector *leadsservice.Service
	gate      ApprovalGate
	rationale *rationale.Generator
	bus       events.Bus
	log       *logger.Logger
	loc       *time.Location
}

func New(
	repo *cancelrepo.Repository,
	leads *leadsrepo.Repository,
	inspector *leadsservice.Service,
	gate ApprovalGate,
	gen *rationale.Generator,
	bus events.Bus,
	log *logger.Logger,
	loc *time.Location,
) *Service {
	return &Service{
		repo:      repo,
		leads:     leads,
		inspector: inspector,
		gate:      gate,
		rationale: gen,
		bus:       bus,
		log:       log,
		loc:       loc,
	}
}

// Eligibility evaluates whether a cancellation request may be submitted now.
// Every failed rule is reported, not just the first.
func (s *Service) Eligibility(ctx context.Context, assignmentID, merchantID uuid.UUID) (transport.EligibilityResponse, error) {
	a, err := s.leads.GetAssignmentForMerchant(ctx, assignmentID, merchantID)
	if err != nil {
		if errors.Is(err, leadsrepo.ErrNotFound) {
			return transport.EligibilityResponse{}, apperr.NotFound("assignment not found")
		}
		return transport.EligibilityResponse{}, err
	}

	reasons, windowEnd, err := s.checkRules(ctx, a)
	if err != nil {
		return transport.EligibilityResponse{}, err
	}

	return transport.EligibilityResponse{
		Eligible:     len(reasons) == 0,
		Reasons:      reasons,
		WindowEndsAt: windowEnd,
	}, nil
}

func (s *Service) checkRules(ctx context.Context, a leadsrepo.Assignment) ([]string, time.Time, error) {
	windowEnd := domain.RequestWindowEnd(a.DeliveredAt, s.loc)
	reasons := make([]string, 0, 4)

	if a.Status != domain.StatusDelivered {
		reasons = append(reasons, fmt.Sprintf("assignment status is %s, not delivered", a.Status))
	}
	if a.DetailStatus == domain.DetailContracted || a.DetailStatus == domain.DetailPaymentPending || a.DetailStatus == domain.DetailCompleted {
		reasons = append(reasons, "assignment has a contracted outcome")
	}
	if !domain.WithinRequestWindow(a.DeliveredAt, time.Now(), s.loc) {
		reasons = append(reasons, "request window has closed")
	}

	pending, err := s.repo.HasPending(ctx, a.ID)
	if err != nil {
		return nil, windowEnd, err
	}
	if pending {
		reasons = append(reasons, "a cancellation request is already pending")
	}

	openExtension, err := s.repo.HasOpenExtension(ctx, a.ID)
	if err != nil {
		return nil, windowEnd, err
	}
	if openExtension {
		reasons = append(reasons, "an extension request is open for this assignment")
	}

	archived, err := s.repo.IsArchived(ctx, a.ID)
	if err != nil {
		return nil, windowEnd, err
	}
	if archived {
		reasons = append(reasons, "assignment is archived")
	}

	return reasons, windowEnd, nil
}

// Submit creates a pending cancellation request, snapshots the contact
// counters, runs the competitor scan and forwards the decision to the
// approval gate. Gate delivery failures are absorbed; the request stays
// pending and decidable.
func (s *Service) Submit(ctx context.Context, req transport.SubmitRequest) (transport.RequestResponse, error) {
	a, err := s.leads.GetAssignmentForMerchant(ctx, req.AssignmentID, req.MerchantID)
	if err != nil {
		if errors.Is(err, leadsrepo.ErrNotFound) {
			return transport.RequestResponse{}, apperr.NotFound("assignment not found")
		}
		return transport.RequestResponse{}, err
	}

	reasons, _, err := s.checkRules(ctx, a)
	if err != nil {
		return transport.RequestResponse{}, err
	}
	if len(reasons) > 0 {
		return transport.RequestResponse{}, apperr.Precondition("cancellation request not eligible").WithDetails(reasons)
	}

	created, err := s.repo.Create(ctx, cancelrepo.CreateParams{
		AssignmentID:       a.ID,
		ReasonCategory:     req.ReasonCategory,
		ReasonDetail:       req.ReasonDetail,
		CallCountSnapshot:  a.CallCount,
		SMSCountSnapshot:   a.SMSCount,
		MailCountSnapshot:  a.MailCount,
		VisitCountSnapshot: a.VisitCount,
	})
	if err != nil {
		if errors.Is(err, cancelrepo.ErrDuplicatePending) {
			return transport.RequestResponse{}, apperr.Conflict("a cancellation request is already pending")
		}
		return transport.RequestResponse{}, err
	}

	summary := s.decisionSummary(ctx, a, created)
	if err := s.gate.RequestDecision(ctx, decisionKind, created.ID, summary); err != nil {
		s.log.Error("forwarding cancellation decision failed, request stays pending",
			"request_id", created.ID, "error", err)
	}

	return transport.FromRequest(created), nil
}

func (s *Service) decisionSummary(ctx context.Context, a leadsrepo.Assignment, req cancelrepo.Request) string {
	leadName := "unknown lead"
	if lead, err := s.leads.GetLead(ctx, a.LeadID); err == nil {
		leadName = lead.LastName + " " + lead.FirstName
	}

	competitors, err := s.inspector.CompetitorActivity(ctx, a.LeadID, a.MerchantID)
	if err != nil {
		s.log.Error("competitor scan for decision summary failed", "lead_id", a.LeadID, "error", err)
	}

	return fmt.Sprintf(
		"Cancellation request for %s\nReason: %s\nDetail: %s\nContact effort: %d calls, %d SMS, %d mails, %d visits\nCompetitors: %d (%d active)\nDelivered: %s",
		leadName, req.ReasonCategory, req.ReasonDetail,
		req.CallCountSnapshot, req.SMSCountSnapshot, req.MailCountSnapshot, req.VisitCountSnapshot,
		competitors.Competitors, competitors.ActiveCompetitors,
		a.DeliveredAt.In(s.loc).Format("2006-01-02 15:04"),
	)
}

// GetRequest returns one request, for merchant polling.
func (s *Service) GetRequest(ctx context.Context, id uuid.UUID) (transport.RequestResponse, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, cancelrepo.ErrNotFound) {
			return transport.RequestResponse{}, apperr.NotFound("cancellation request not found")
		}
		return transport.RequestResponse{}, err
	}
	return transport.FromRequest(req), nil
}

// ApplyDecision is the approval-gate cascade for cancellation decisions.
// Approval moves the assignment to cancel_approved under the optimistic
// status check; a concurrent contracted outcome wins and the decision fails
// with a conflict (reject-second).
func (s *Service) ApplyDecision(ctx context.Context, requestID uuid.UUID, approved bool, approver string) error {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	a, err := s.leads.GetAssignment(ctx, req.AssignmentID)
	if err != nil {
		return err
	}

	if approved {
		return s.approve(ctx, req, a, approver)
	}
	return s.reject(ctx, req, a, approver)
}

func (s *Service) approve(ctx context.Context, req cancelrepo.Request, a leadsrepo.Assignment, approver string) error {
	if err := s.leads.UpdateStatus(ctx, a.ID, domain.StatusDelivered, domain.StatusCancelApproved); err != nil {
		if errors.Is(err, leadsrepo.ErrStale) {
			return apperr.Conflict("assignment left delivered state before the decision was applied")
		}
		return err
	}

	// Best effort: mirror the outcome into the detail status.
	if _, err := s.leads.UpdateDetailStatus(ctx, a.ID, a.DetailStatus, domain.DetailCancelled); err != nil {
		s.log.Error("detail status cancel mirror failed", "assignment_id", a.ID, "error", err)
	}

	applied, err := s.repo.Resolve(ctx, req.ID, "approved", approver, nil)
	if err != nil {
		return err
	}
	if !applied {
		return apperr.Conflict("cancellation request was already decided")
	}

	s.bus.Publish(ctx, events.CancellationDecided{
		BaseEvent:    events.NewBaseEvent(),
		RequestID:    req.ID,
		AssignmentID: a.ID,
		LeadID:       a.LeadID,
		MerchantID:   a.MerchantID,
		Approved:     true,
	})
	return nil
}

func (s *Service) reject(ctx context.Context, req cancelrepo.Request, a leadsrepo.Assignment, approver string) error {
	competitors, err := s.inspector.CompetitorActivity(ctx, a.LeadID, a.MerchantID)
	if err != nil {
		s.log.Error("competitor scan for rejection rationale failed", "lead_id", a.LeadID, "error", err)
	}

	leadName := ""
	if lead, lerr := s.leads.GetLead(ctx, a.LeadID); lerr == nil {
		leadName = lead.LastName + " " + lead.FirstName
	}

	text := s.rationale.RejectionRationale(ctx, rationale.Input{
		Kind:              decisionKind,
		LeadName:          leadName,
		ReasonCategory:    req.ReasonCategory,
		CallCount:         req.CallCountSnapshot,
		SMSCount:          req.SMSCountSnapshot,
		MailCount:         req.MailCountSnapshot,
		VisitCount:        req.VisitCountSnapshot,
		CompetitorCount:   competitors.Competitors,
		ActiveCompetitors: competitors.ActiveCompetitors,
	})

	applied, err := s.repo.Resolve(ctx, req.ID, "rejected", approver, &text)
	if err != nil {
		return err
	}
	if !applied {
		return apperr.Conflict("cancellation request was already decided")
	}

	s.bus.Publish(ctx, events.CancellationDecided{
		BaseEvent:    events.NewBaseEvent(),
		RequestID:    req.ID,
		AssignmentID: a.ID,
		LeadID:       a.LeadID,
		MerchantID:   a.MerchantID,
		Approved:     false,
		Rationale:    text,
	})
	return nil
}
