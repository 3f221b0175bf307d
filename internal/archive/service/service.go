// Package service implements the reversible merchant-local archive: marks
// hide an assignment from working lists without touching its lifecycle.
package service

import (
	"context"
	"errors"

	archiverepo "leadhub/internal/archive/repository"
	"leadhub/internal/leads/domain"
	leadsrepo "leadhub/internal/leads/repository"
	"leadhub/platform/apperr"

	"github.com/google/uuid"
)

type Service struct {
	repo  *archiverepo.Repository
	leads *leadsrepo.Repository
}

func New(repo *archiverepo.Repository, leads *leadsrepo.Repository) *Service {
	return &Service{repo: repo, leads: leads}
}

// Archive hides a delivered assignment for its merchant. The mark records
// who placed it; only that user may restore.
func (s *Service) Archive(ctx context.Context, assignmentID, merchantID, userID uuid.UUID) (archiverepo.Mark, error) {
	a, err := s.leads.GetAssignmentForMerchant(ctx, assignmentID, merchantID)
	if err != nil {
		if errors.Is(err, leadsrepo.ErrNotFound) {
			return archiverepo.Mark{}, apperr.NotFound("assignment not found")
		}
		return archiverepo.Mark{}, err
	}
	if a.Status != domain.StatusDelivered {
		return archiverepo.Mark{}, apperr.Precondition("only delivered assignments can be archived")
	}

	mark, err := s.repo.Create(ctx, assignmentID, userID)
	if err != nil {
		if errors.Is(err, archiverepo.ErrAlreadyArchived) {
			return archiverepo.Mark{}, apperr.Conflict("assignment is already archived")
		}
		return archiverepo.Mark{}, err
	}
	return mark, nil
}

// Restore removes an archive mark. Rejected with Forbidden when someone
// other than the marker tries.
func (s *Service) Restore(ctx context.Context, assignmentID, merchantID, userID uuid.UUID) error {
	if _, err := s.leads.GetAssignmentForMerchant(ctx, assignmentID, merchantID); err != nil {
		if errors.Is(err, leadsrepo.ErrNotFound) {
			return apperr.NotFound("assignment not found")
		}
		return err
	}

	mark, err := s.repo.Get(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, archiverepo.ErrNotFound) {
			return apperr.NotFound("assignment is not archived")
		}
		return err
	}
	if mark.ArchivedBy != userID {
		return apperr.Forbidden("only the user who archived the assignment can restore it")
	}

	if err := s.repo.Delete(ctx, assignmentID, userID); err != nil {
		if errors.Is(err, archiverepo.ErrNotFound) {
			// Someone else restored between the read and the delete.
			return apperr.Conflict("archive mark changed concurrently")
		}
		return err
	}
	return nil
}

// List returns the merchant's archived cases.
func (s *Service) List(ctx context.Context, merchantID uuid.UUID) ([]archiverepo.ArchivedCase, error) {
	return s.repo.ListByMerchant(ctx, merchantID)
}
