// Package service exposes the notification preference and subscription
// operations behind the HTTP surface.
package service

import (
	"context"
	"errors"

	"leadhub/internal/notification/repository"
	"leadhub/platform/apperr"
	"leadhub/platform/phone"

	"github.com/google/uuid"
)

const minutesPerDay = 24 * 60

type Service struct {
	repo *repository.Repository
}

func New(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// Profile returns the stored profile or the default for unknown users.
func (s *Service) Profile(ctx context.Context, userID, merchantID uuid.UUID) (repository.Profile, error) {
	p, err := s.repo.GetProfile(ctx, userID, merchantID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.DefaultProfile(userID, merchantID), nil
	}
	return p, err
}

type UpsertProfileParams struct {
	UserID            uuid.UUID
	MerchantID        uuid.UUID
	Phone             string
	MessagingEnabled  bool
	PushEnabled       bool
	SMSEnabled        bool
	AlertOptouts      []string
	QuietStartMinutes *int
	QuietEndMinutes   *int
}

func (s *Service) UpsertProfile(ctx context.Context, params UpsertProfileParams) (repository.Profile, error) {
	if (params.QuietStartMinutes == nil) != (params.QuietEndMinutes == nil) {
		return repository.Profile{}, apperr.Validation("quiet hours require both start and end")
	}
	if params.QuietStartMinutes != nil {
		if *params.QuietStartMinutes < 0 || *params.QuietStartMinutes >= minutesPerDay ||
			*params.QuietEndMinutes < 0 || *params.QuietEndMinutes >= minutesPerDay {
			return repository.Profile{}, apperr.Validation("quiet hour minutes must be within 0..1439")
		}
	}

	optouts := params.AlertOptouts
	if optouts == nil {
		optouts = []string{}
	}

	return s.repo.UpsertProfile(ctx, repository.Profile{
		UserID:            params.UserID,
		MerchantID:        params.MerchantID,
		Phone:             phone.NormalizeE164(params.Phone),
		MessagingEnabled:  params.MessagingEnabled,
		PushEnabled:       params.PushEnabled,
		SMSEnabled:        params.SMSEnabled,
		AlertOptouts:      optouts,
		QuietStartMinutes: params.QuietStartMinutes,
		QuietEndMinutes:   params.QuietEndMinutes,
	})
}

func (s *Service) LinkMessagingIdentity(ctx context.Context, userID, merchantID uuid.UUID, externalID string) error {
	if externalID == "" {
		return apperr.Validation("externalId is required")
	}
	return s.repo.UpsertMessagingIdentity(ctx, userID, merchantID, externalID)
}

func (s *Service) UnlinkMessagingIdentity(ctx context.Context, userID, merchantID uuid.UUID) error {
	return s.repo.DeleteMessagingIdentity(ctx, userID, merchantID)
}

func (s *Service) RegisterPushSubscription(ctx context.Context, userID, merchantID uuid.UUID, endpoint, p256dh, auth string) error {
	if endpoint == "" || p256dh == "" || auth == "" {
		return apperr.Validation("endpoint, p256dh and auth are required")
	}
	return s.repo.CreatePushSubscription(ctx, userID, merchantID, endpoint, p256dh, auth)
}

func (s *Service) RemovePushSubscription(ctx context.Context, userID, merchantID uuid.UUID, endpoint string) error {
	return s.repo.DeletePushSubscription(ctx, userID, merchantID, endpoint)
}

// DeliveryLog returns recent delivery events for a merchant.
func (s *Service) DeliveryLog(ctx context.Context, merchantID uuid.UUID, limit int) ([]repository.Event, error) {
	return s.repo.ListEventsByMerchant(ctx, merchantID, limit)
}
