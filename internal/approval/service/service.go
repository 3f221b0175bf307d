// Package service implements the approval gate: durable pending decisions,
// interactive message delivery with an email mirror, and idempotent
// callback resolution cascading into the owning workflow.
package service

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"leadhub/internal/approval/repository"
	"leadhub/internal/approval/telegram"
	"leadhub/internal/approval/token"
	"leadhub/internal/email"
	"leadhub/platform/apperr"
	"leadhub/platform/config"
	"leadhub/platform/logger"

	"github.com/google/uuid"
)

// Decision kinds routed through the gate.
const (
	KindCancellation = "cancellation"
	KindExtension    = "extension"
)

// Applier is implemented by the workflow services that own a decision.
// ApplyDecision runs synchronously inside callback resolution; its error is
// logged but never undoes the recorded decision.
type Applier interface {
	ApplyDecision(ctx context.Context, requestID uuid.UUID, approved bool, approver string) error
}

type Gate struct {
	repo     *repository.Repository
	telegram *telegram.Client
	mail     email.Sender
	signer   *token.Signer
	cfg      config.ApprovalConfig
	log      *logger.Logger

	mu       sync.RWMutex
	appliers map[string]Applier
}

func NewGate(repo *repository.Repository, tg *telegram.Client, mail email.Sender, cfg config.ApprovalConfig, log *logger.Logger) *Gate {
	return &Gate{
		repo:     repo,
		telegram: tg,
		mail:     mail,
		signer:   token.NewSigner(cfg.GetCallbackSigningSecret()),
		cfg:      cfg,
		log:      log,
		appliers: make(map[string]Applier),
	}
}

// RegisterApplier binds a workflow service to its decision kind. Called once
// per workflow at composition time.
func (g *Gate) RegisterApplier(kind string, applier Applier) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.appliers[kind] = applier
}

func (g *Gate) applier(kind string) (Applier, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	a, ok := g.appliers[kind]
	return a, ok
}

// RequestDecision persists the pending decision and forwards it to the
// approver. Delivery failure is absorbed: the durable row keeps the request
// decidable through the email mirror or a resent message.
func (g *Gate) RequestDecision(ctx context.Context, kind string, requestID uuid.UUID, summary string) error {
	if _, ok := g.applier(kind); !ok {
		return apperr.Internal(fmt.Sprintf("no applier registered for decision kind %q", kind))
	}

	if err := g.repo.Create(ctx, requestID, kind, summary); err != nil {
		return err
	}

	approveURL, rejectURL, err := g.decisionURLs(kind, requestID)
	if err != nil {
		g.log.IntegrationError("approval", "sign decision tokens", err)
		return nil
	}

	delivered := false
	if g.telegram.Enabled() {
		if err := g.telegram.SendDecisionRequest(summary, approveURL, rejectURL); err != nil {
			g.log.IntegrationError("telegram", "send decision request", err)
		} else {
			delivered = true
		}
	}

	if !delivered && g.mail != nil && g.cfg.GetApproverEmail() != "" {
		body := email.FormatApprovalBody(summary, approveURL, rejectURL)
		if err := g.mail.SendApprovalRequest(ctx, g.cfg.GetApproverEmail(), "Decision required: "+kind, body); err != nil {
			g.log.IntegrationError("email", "send decision request", err)
		} else {
			delivered = true
		}
	}

	if !delivered {
		g.log.Warn("approval request stored but not delivered", "kind", kind, "request_id", requestID)
	}
	return nil
}

func (g *Gate) decisionURLs(kind string, requestID uuid.UUID) (string, string, error) {
	approveToken, err := g.signer.Sign(kind, requestID, token.DecisionApprove)
	if err != nil {
		return "", "", err
	}
	rejectToken, err := g.signer.Sign(kind, requestID, token.DecisionReject)
	if err != nil {
		return "", "", err
	}

	base := g.cfg.GetCallbackBaseURL() + "/api/v1/approvals/callback?token="
	return base + url.QueryEscape(approveToken), base + url.QueryEscape(rejectToken), nil
}

// Resolve handles one callback token. Resolution is idempotent: the first
// valid callback decides the request and cascades into the workflow applier;
// every later one is a no-op. All errors are internal; callers reply success
// to the messaging platform regardless.
func (g *Gate) Resolve(ctx context.Context, rawToken, approver string) {
	claims, err := g.signer.Parse(rawToken)
	if err != nil {
		g.log.Warn("approval callback with invalid token", "error", err)
		return
	}

	approved := claims.Decision == token.DecisionApprove
	applied, err := g.repo.Resolve(ctx, claims.RequestID, claims.Decision, approver)
	if err != nil {
		g.log.DatabaseError("resolve decision request", err)
		return
	}
	if !applied {
		g.log.Info("approval callback ignored, request already decided",
			"kind", claims.Kind, "request_id", claims.RequestID)
		return
	}

	applier, ok := g.applier(claims.Kind)
	if !ok {
		g.log.Error("decided request has no registered applier", "kind", claims.Kind, "request_id", claims.RequestID)
		return
	}
	if err := applier.ApplyDecision(ctx, claims.RequestID, approved, approver); err != nil {
		// The decision stays recorded; the workflow logs enough to repair.
		g.log.Error("decision applier failed",
			"kind", claims.Kind, "request_id", claims.RequestID, "approved", approved, "error", err)
	}
}
