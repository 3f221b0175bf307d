package service

import (
	"context"
	"errors"
	"time"

	"leadhub/internal/leads/domain"
	"leadhub/internal/leads/repository"
	"leadhub/internal/leads/transport"
	"leadhub/platform/apperr"

	"github.com/google/uuid"
)

// How far back a contact still counts as recent competitor activity.
const recentContactWindow = 7 * 24 * time.Hour

// CompetitorActivity inspects the other assignments on a lead and reports
// whether competing merchants are actively working it. The scan is advisory:
// it reads a snapshot and the verdict can be stale by the time it is used.
func (s *Service) CompetitorActivity(ctx context.Context, leadID, merchantID uuid.UUID) (transport.CompetitorSummary, error) {
	assignments, err := s.repo.ListByLead(ctx, leadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.CompetitorSummary{}, apperr.NotFound("lead not found")
		}
		return transport.CompetitorSummary{}, err
	}
	if len(assignments) == 0 {
		return transport.CompetitorSummary{}, apperr.NotFound("lead has no assignments")
	}
	return SummarizeCompetitors(assignments, merchantID, time.Now()), nil
}

// SummarizeCompetitors computes the activity verdict over a snapshot of a
// lead's assignments, excluding the asking merchant's own row. Closed rows
// are scanned only for the contracted signal; the counts and entries cover
// open pursuits. A competitor counts as active when any of: last contact
// within 7 days, detail status in the active-pursuit set, at least one call
// logged, or a future appointment.
func SummarizeCompetitors(assignments []repository.Assignment, merchantID uuid.UUID, now time.Time) transport.CompetitorSummary {
	summary := transport.CompetitorSummary{Entries: make([]transport.CompetitorEntry, 0, len(assignments))}

	for _, a := range assignments {
		if a.MerchantID == merchantID {
			continue
		}
		if a.DetailStatus == domain.DetailContracted || a.DetailStatus == domain.DetailPaymentPending || a.DetailStatus == domain.DetailCompleted {
			summary.AnyContracted = true
		}
		if a.DetailStatus.Closed() {
			continue
		}
		summary.Competitors++

		entry := transport.CompetitorEntry{
			MerchantID:    a.MerchantID,
			Rank:          a.Rank,
			DetailStatus:  string(a.DetailStatus),
			CallCount:     a.CallCount,
			LastContactAt: a.LastContactAt,
			AppointmentAt: a.AppointmentAt,
		}
		recentContact := a.LastContactAt != nil && now.Sub(*a.LastContactAt) <= recentContactWindow
		futureAppointment := a.AppointmentAt != nil && a.AppointmentAt.After(now)
		entry.Active = recentContact || a.DetailStatus.ActivePursuit() || a.CallCount > 0 || futureAppointment
		if entry.Active {
			summary.ActiveCompetitors++
		}
		summary.Entries = append(summary.Entries, entry)
	}
	return summary
}
