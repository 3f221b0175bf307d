package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadhub/internal/notification/repository"
	"leadhub/platform/config"
	"leadhub/platform/logger"
)

// Messaging delivers through the rich-messaging platform's push API. The
// recipient is addressed by the external ID stored when the user linked
// their messaging account.
type Messaging struct {
	baseURL string
	token   string
	repo    *repository.Repository
	http    *http.Client
	log     *logger.Logger
}

type messagingPayload struct {
	To       string             `json:"to"`
	Messages []messagingMessage `json:"messages"`
}

type messagingMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewMessaging returns nil when the channel is unconfigured; a nil channel
// is never provisioned.
func NewMessaging(cfg config.MessagingConfig, repo *repository.Repository, log *logger.Logger) *Messaging {
	if !cfg.IsMessagingEnabled() {
		return nil
	}
	return &Messaging{
		baseURL: strings.TrimRight(cfg.GetMessagingAPIURL(), "/"),
		token:   cfg.GetMessagingToken(),
		repo:    repo,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

func (m *Messaging) Name() string { return NameMessaging }

func (m *Messaging) Provisioned(ctx context.Context, target Target) (bool, error) {
	if m == nil {
		return false, nil
	}
	_, err := m.repo.GetMessagingIdentity(ctx, target.UserID, target.MerchantID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (m *Messaging) Send(ctx context.Context, target Target, msg Message) (string, error) {
	externalID, err := m.repo.GetMessagingIdentity(ctx, target.UserID, target.MerchantID)
	if err != nil {
		return "", err
	}

	text := msg.Body
	if msg.Title != "" {
		text = msg.Title + "\n" + msg.Body
	}
	body, err := json.Marshal(messagingPayload{
		To:       externalID,
		Messages: []messagingMessage{{Type: "text", Text: text}},
	})
	if err != nil {
		return externalID, fmt.Errorf("marshal messaging payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/v2/bot/message/push", bytes.NewBuffer(body))
	if err != nil {
		return externalID, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.token)

	resp, err := m.http.Do(req)
	if err != nil {
		return externalID, fmt.Errorf("messaging request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return externalID, fmt.Errorf("messaging service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	m.log.Info("rich message sent", "alert_type", msg.AlertType)
	return externalID, nil
}
