// Package service implements the assignment lifecycle operations: case
// listing, detail-status transitions, contract reports and contact logging.
package service

import (
	"context"
	"errors"
	"time"

	"leadhub/internal/events"
	"leadhub/internal/leads/domain"
	"leadhub/internal/leads/repository"
	"leadhub/internal/leads/transport"
	"leadhub/platform/apperr"
	"leadhub/platform/logger"

	"github.com/google/uuid"
)

type Service struct {
	repo *repository.Repository
	bus  events.Bus
	log  *logger.Logger
	loc  *time.Location
}

func New(repo *repository.Repository, bus events.Bus, log *logger.Logger, loc *time.Location) *Service {
	return &Service{repo: repo, bus: bus, log: log, loc: loc}
}

// DeliverLead assigns a lead to a merchant. The working deadline starts at
// the end of the request window; rank reflects the delivery order on the
// lead. A merchant receives a lead at most once.
func (s *Service) DeliverLead(ctx context.Context, req transport.DeliverLeadRequest) (transport.CaseResponse, error) {
	if _, err := s.repo.GetLead(ctx, req.LeadID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.CaseResponse{}, apperr.NotFound("lead not found")
		}
		return transport.CaseResponse{}, err
	}

	deliveredAt := time.Now().In(s.loc)
	a, err := s.repo.CreateAssignment(ctx, req.LeadID, req.MerchantID, deliveredAt, domain.InitialDeadline(deliveredAt, s.loc))
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateAssignment) {
			return transport.CaseResponse{}, apperr.Conflict("merchant already holds an assignment on this lead")
		}
		return transport.CaseResponse{}, err
	}

	s.bus.Publish(ctx, events.AssignmentDelivered{
		BaseEvent:    events.NewBaseEvent(),
		AssignmentID: a.ID,
		LeadID:       a.LeadID,
		MerchantID:   a.MerchantID,
		Rank:         a.Rank,
		DeliveredAt:  a.DeliveredAt,
	})

	return transport.FromAssignment(a), nil
}

// ListDeliveredCases returns a merchant's open delivered cases.
func (s *Service) ListDeliveredCases(ctx context.Context, merchantID uuid.UUID, includeArchived bool) ([]transport.CaseResponse, error) {
	items, err := s.repo.ListDelivered(ctx, merchantID, includeArchived)
	if err != nil {
		return nil, err
	}
	out := make([]transport.CaseResponse, 0, len(items))
	for _, item := range items {
		out = append(out, transport.FromAssignmentWithLead(item))
	}
	return out, nil
}

// GetCase returns one assignment with its contact history, scoped to the
// owning merchant.
func (s *Service) GetCase(ctx context.Context, assignmentID, merchantID uuid.UUID) (transport.CaseResponse, []transport.ContactLogResponse, error) {
	a, err := s.repo.GetAssignmentForMerchant(ctx, assignmentID, merchantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.CaseResponse{}, nil, apperr.NotFound("assignment not found")
		}
		return transport.CaseResponse{}, nil, err
	}

	logs, err := s.repo.ListContacts(ctx, assignmentID)
	if err != nil {
		return transport.CaseResponse{}, nil, err
	}
	contacts := make([]transport.ContactLogResponse, 0, len(logs))
	for _, log := range logs {
		contacts = append(contacts, transport.FromContactLog(log))
	}
	return transport.FromAssignment(a), contacts, nil
}

// UpdateDetailStatus applies a forward-only detail-status transition. The
// caller supplies the status it believes is current; a mismatch at write
// time means a concurrent update won and the caller must re-read.
func (s *Service) UpdateDetailStatus(ctx context.Context, req transport.UpdateDetailStatusRequest) (transport.CaseResponse, error) {
	current := domain.DetailStatus(req.CurrentStatus)
	next := domain.DetailStatus(req.NextStatus)
	if !current.Valid() || !next.Valid() {
		return transport.CaseResponse{}, apperr.Validation("unknown detail status")
	}
	if !domain.CanTransition(current, next) {
		return transport.CaseResponse{}, apperr.Precondition("transition not allowed from " + req.CurrentStatus + " to " + req.NextStatus)
	}

	a, err := s.repo.GetAssignmentForMerchant(ctx, req.AssignmentID, req.MerchantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.CaseResponse{}, apperr.NotFound("assignment not found")
		}
		return transport.CaseResponse{}, err
	}
	if a.Status.Terminal() {
		return transport.CaseResponse{}, apperr.Precondition("assignment is already closed")
	}
	if err := s.checkContractSlot(ctx, a, next); err != nil {
		return transport.CaseResponse{}, err
	}

	updated, err := s.repo.UpdateDetailStatus(ctx, req.AssignmentID, current, next)
	if err != nil {
		if errors.Is(err, repository.ErrStale) {
			return transport.CaseResponse{}, apperr.Conflict("assignment was updated concurrently")
		}
		if errors.Is(err, repository.ErrContractTaken) {
			return transport.CaseResponse{}, apperr.Conflict("lead was contracted by another merchant")
		}
		return transport.CaseResponse{}, err
	}

	s.bus.Publish(ctx, events.DetailStatusChanged{
		BaseEvent:    events.NewBaseEvent(),
		AssignmentID: updated.ID,
		LeadID:       updated.LeadID,
		MerchantID:   updated.MerchantID,
		Previous:     string(current),
		Current:      string(next),
	})

	return transport.FromAssignment(updated), nil
}

// SubmitContractReport records a contract or additional-work report. A
// plain contract report moves the detail status through the transition
// table; additional_work reports on an already-contracted assignment skip
// the transition check so follow-up work can be recorded after close.
func (s *Service) SubmitContractReport(ctx context.Context, req transport.ContractReportRequest) (transport.CaseResponse, error) {
	next, ok := domain.DetailStatusForReport(domain.ReportStatus(req.ReportStatus))
	if !ok {
		return transport.CaseResponse{}, apperr.Validation("unknown report status")
	}

	a, err := s.repo.GetAssignmentForMerchant(ctx, req.AssignmentID, req.MerchantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.CaseResponse{}, apperr.NotFound("assignment not found")
		}
		return transport.CaseResponse{}, err
	}

	additionalWork := domain.ReportType(req.ReportType) == domain.ReportTypeAdditionalWork
	if !additionalWork && !domain.CanTransition(a.DetailStatus, next) {
		return transport.CaseResponse{}, apperr.Precondition("report status " + req.ReportStatus + " is not reachable from " + string(a.DetailStatus))
	}
	if additionalWork && !a.DetailStatus.Closed() {
		return transport.CaseResponse{}, apperr.Precondition("additional work reports require a contracted assignment")
	}
	if !additionalWork {
		if err := s.checkContractSlot(ctx, a, next); err != nil {
			return transport.CaseResponse{}, err
		}
	}

	updated := a
	if !additionalWork {
		updated, err = s.repo.UpdateDetailStatus(ctx, req.AssignmentID, a.DetailStatus, next)
		if err != nil {
			if errors.Is(err, repository.ErrStale) {
				return transport.CaseResponse{}, apperr.Conflict("assignment was updated concurrently")
			}
			if errors.Is(err, repository.ErrContractTaken) {
				return transport.CaseResponse{}, apperr.Conflict("lead was contracted by another merchant")
			}
			return transport.CaseResponse{}, err
		}
	}

	if req.ContractAmount > 0 {
		if err := s.repo.SetContractAmount(ctx, req.AssignmentID, req.ContractAmount); err != nil {
			return transport.CaseResponse{}, err
		}
		updated.ContractAmount = &req.ContractAmount
	}

	s.bus.Publish(ctx, events.ContractReported{
		BaseEvent:      events.NewBaseEvent(),
		AssignmentID:   updated.ID,
		LeadID:         updated.LeadID,
		MerchantID:     updated.MerchantID,
		ReportType:     req.ReportType,
		ContractAmount: req.ContractAmount,
	})
	if !additionalWork {
		s.bus.Publish(ctx, events.DetailStatusChanged{
			BaseEvent:    events.NewBaseEvent(),
			AssignmentID: updated.ID,
			LeadID:       updated.LeadID,
			MerchantID:   updated.MerchantID,
			Previous:     string(a.DetailStatus),
			Current:      string(next),
		})
	}

	return transport.FromAssignment(updated), nil
}

// checkContractSlot guards the one-contract-per-lead rule: a move that
// forces the contracted outcome is refused while a competing merchant holds
// it. The partial unique index on assignments backs this for the racing case.
func (s *Service) checkContractSlot(ctx context.Context, a repository.Assignment, next domain.DetailStatus) error {
	status, forced := domain.StatusFor(next)
	if !forced || status != domain.StatusContracted {
		return nil
	}

	others, err := s.repo.ListByLead(ctx, a.LeadID)
	if err != nil {
		return err
	}
	if leadContractedByOther(others, a.MerchantID) {
		return apperr.Precondition("lead is already contracted by another merchant")
	}
	return nil
}

// leadContractedByOther reports whether a competing merchant already holds
// the contracted outcome on the lead.
func leadContractedByOther(assignments []repository.Assignment, selfID uuid.UUID) bool {
	for _, a := range assignments {
		if a.MerchantID != selfID && a.Status == domain.StatusContracted {
			return true
		}
	}
	return false
}

// RecordContact appends a contact log entry. ContactedAt defaults to now.
func (s *Service) RecordContact(ctx context.Context, req transport.RecordContactRequest) (transport.ContactLogResponse, error) {
	kind := domain.ContactKind(req.Kind)
	if !kind.Valid() {
		return transport.ContactLogResponse{}, apperr.Validation("unknown contact kind")
	}

	a, err := s.repo.GetAssignmentForMerchant(ctx, req.AssignmentID, req.MerchantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.ContactLogResponse{}, apperr.NotFound("assignment not found")
		}
		return transport.ContactLogResponse{}, err
	}
	if a.Status != domain.StatusDelivered {
		return transport.ContactLogResponse{}, apperr.Precondition("contacts can only be logged on delivered assignments")
	}

	contactedAt := time.Now().In(s.loc)
	if req.ContactedAt != nil {
		contactedAt = req.ContactedAt.In(s.loc)
	}

	log, err := s.repo.RecordContact(ctx, req.AssignmentID, kind, req.Note, contactedAt)
	if err != nil {
		return transport.ContactLogResponse{}, err
	}
	return transport.FromContactLog(log), nil
}

// SetSchedule updates the planned next action and appointment.
func (s *Service) SetSchedule(ctx context.Context, req transport.SetScheduleRequest) (transport.CaseResponse, error) {
	if req.NextActionAt != nil && req.NextActionKind == nil {
		return transport.CaseResponse{}, apperr.Validation("nextActionKind is required when nextActionAt is set")
	}

	a, err := s.repo.GetAssignmentForMerchant(ctx, req.AssignmentID, req.MerchantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.CaseResponse{}, apperr.NotFound("assignment not found")
		}
		return transport.CaseResponse{}, err
	}
	if a.Status != domain.StatusDelivered {
		return transport.CaseResponse{}, apperr.Precondition("schedule can only be set on delivered assignments")
	}

	updated, err := s.repo.SetSchedule(ctx, req.AssignmentID, repository.ScheduleParams{
		NextActionAt:   req.NextActionAt,
		NextActionKind: req.NextActionKind,
		AppointmentAt:  req.AppointmentAt,
	})
	if err != nil {
		return transport.CaseResponse{}, err
	}
	return transport.FromAssignment(updated), nil
}
