package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadhub/platform/config"
	"leadhub/platform/logger"
	"leadhub/platform/phone"
)

// SMS delivers through an HTTP SMS gateway. The terminal fallback for
// merchants and the only channel for customers.
type SMS struct {
	baseURL  string
	apiKey   string
	senderID string
	http     *http.Client
	log      *logger.Logger
}

type smsPayload struct {
	To   string `json:"to"`
	From string `json:"from"`
	Text string `json:"text"`
}

// NewSMS returns nil when the gateway is unconfigured.
func NewSMS(cfg config.SMSConfig, log *logger.Logger) *SMS {
	if !cfg.IsSMSEnabled() {
		return nil
	}
	return &SMS{
		baseURL:  strings.TrimRight(cfg.GetSMSAPIURL(), "/"),
		apiKey:   cfg.GetSMSAPIKey(),
		senderID: cfg.GetSMSSenderID(),
		http:     &http.Client{Timeout: 10 * time.Second},
		log:      log,
	}
}

func (s *SMS) Name() string { return NameSMS }

func (s *SMS) Provisioned(_ context.Context, target Target) (bool, error) {
	return s != nil && target.Phone != "", nil
}

func (s *SMS) Send(ctx context.Context, target Target, msg Message) (string, error) {
	normalized := phone.NormalizeE164(target.Phone)
	if normalized == "" {
		return target.Phone, fmt.Errorf("phone %q does not normalize to E.164", target.Phone)
	}

	body, err := json.Marshal(smsPayload{
		To:   normalized,
		From: s.senderID,
		Text: msg.Body,
	})
	if err != nil {
		return normalized, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/messages", bytes.NewBuffer(body))
	if err != nil {
		return normalized, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", s.apiKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return normalized, fmt.Errorf("sms request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return normalized, fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	s.log.Info("sms sent", "alert_type", msg.AlertType)
	return normalized, nil
}
