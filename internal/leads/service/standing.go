package service

import (
	"context"
	"fmt"

	"leadhub/internal/leads/repository"

	"github.com/google/uuid"
)

// RefreshMerchantStanding recomputes the merchant's standing projection from
// assignment outcomes. Invoked from the detail-status-changed event handler,
// so the projection is eventually consistent with the lifecycle writes.
func (s *Service) RefreshMerchantStanding(ctx context.Context, merchantID uuid.UUID) error {
	counts, err := s.repo.MerchantOutcomeCounts(ctx, merchantID)
	if err != nil {
		return err
	}

	standing := standingFor(counts)
	summary := fmt.Sprintf("%d open, %d contracted, %d declined, %d cancelled",
		counts.Open, counts.Contracted, counts.Declined, counts.CancelApproved)

	return s.repo.UpdateMerchantStanding(ctx, merchantID, standing, summary)
}

// standingFor derives the coarse standing label. A merchant whose closed
// assignments are mostly cancellations is flagged for review.
func standingFor(c repository.OutcomeCounts) string {
	closed := c.Contracted + c.Declined + c.CancelApproved
	if closed >= 5 && c.CancelApproved*2 > closed {
		return "review"
	}
	return "active"
}
