package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"leadhub/internal/notification/repository"
	"leadhub/platform/config"
	"leadhub/platform/logger"
)

// WebPush delivers browser push notifications over the Web Push protocol
// with VAPID authentication. One user may hold several subscriptions (one
// per browser); delivery counts as success when any of them accepts.
type WebPush struct {
	publicKey  string
	privateKey string
	subscriber string
	repo       *repository.Repository
	log        *logger.Logger
}

type pushPayload struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	AlertType string `json:"alertType"`
	LeadID    string `json:"leadId,omitempty"`
}

// NewWebPush returns nil when VAPID keys are unconfigured.
func NewWebPush(cfg config.PushConfig, repo *repository.Repository, log *logger.Logger) *WebPush {
	if !cfg.IsPushEnabled() {
		return nil
	}
	return &WebPush{
		publicKey:  cfg.GetVAPIDPublicKey(),
		privateKey: cfg.GetVAPIDPrivateKey(),
		subscriber: cfg.GetVAPIDSubscriber(),
		repo:       repo,
		log:        log,
	}
}

func (w *WebPush) Name() string { return NameWebPush }

func (w *WebPush) Provisioned(ctx context.Context, target Target) (bool, error) {
	if w == nil {
		return false, nil
	}
	subs, err := w.repo.ListPushSubscriptions(ctx, target.UserID, target.MerchantID)
	if err != nil {
		return false, err
	}
	return len(subs) > 0, nil
}

func (w *WebPush) Send(ctx context.Context, target Target, msg Message) (string, error) {
	subs, err := w.repo.ListPushSubscriptions(ctx, target.UserID, target.MerchantID)
	if err != nil {
		return "", err
	}
	if len(subs) == 0 {
		return "", errors.New("no push subscriptions")
	}

	payload := pushPayload{Title: msg.Title, Body: msg.Body, AlertType: msg.AlertType}
	if msg.LeadID != nil {
		payload.LeadID = msg.LeadID.String()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	var firstErr error
	delivered := 0
	for _, sub := range subs {
		resp, err := webpush.SendNotificationWithContext(ctx, body, &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys:     webpush.Keys{P256dh: sub.P256dh, Auth: sub.Auth},
		}, &webpush.Options{
			Subscriber:      w.subscriber,
			VAPIDPublicKey:  w.publicKey,
			VAPIDPrivateKey: w.privateKey,
			TTL:             3600,
		})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
			// The browser dropped the subscription; prune it.
			if derr := w.repo.DeletePushSubscriptionByEndpoint(ctx, sub.Endpoint); derr != nil {
				w.log.DatabaseError("prune push subscription", derr)
			}
		} else if resp.StatusCode < http.StatusBadRequest {
			delivered++
		} else if firstErr == nil {
			firstErr = fmt.Errorf("push service returned %d", resp.StatusCode)
		}
		_ = resp.Body.Close()
	}

	address := fmt.Sprintf("%d subscriptions", len(subs))
	if delivered == 0 {
		if firstErr == nil {
			firstErr = errors.New("no subscription accepted the push")
		}
		return address, firstErr
	}
	return address, nil
}
