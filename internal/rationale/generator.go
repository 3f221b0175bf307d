// Package rationale produces the short explanation attached to a rejected
// cancellation or extension request. Generation never fails: when the model
// is unconfigured, slow or erroring, a deterministic template takes over.
package rationale

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"leadhub/platform/config"
	"leadhub/platform/logger"
)

// Input captures the facts a rationale is built from.
type Input struct {
	Kind              string // cancellation or extension
	LeadName          string
	ReasonCategory    string
	CallCount         int
	SMSCount          int
	MailCount         int
	VisitCount        int
	CompetitorCount   int
	ActiveCompetitors int
}

type Generator struct {
	client *genai.Client
	cfg    config.AIConfig
	log    *logger.Logger
}

// New builds the generator. A missing API key leaves the client nil and
// every call lands on the fallback template.
func New(ctx context.Context, cfg config.AIConfig, log *logger.Logger) *Generator {
	g := &Generator{cfg: cfg, log: log}
	if !cfg.IsRationaleAIEnabled() {
		return g
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.IntegrationError("genai", "client init", err)
		return g
	}
	g.client = client
	return g
}

// RejectionRationale returns a short human-readable explanation for a
// rejection. The model call runs under its own timeout; any failure falls
// back to the deterministic template.
func (g *Generator) RejectionRationale(ctx context.Context, in Input) string {
	if g.client != nil {
		timeoutCtx, cancel := context.WithTimeout(ctx, g.cfg.GetRationaleTimeout())
		defer cancel()

		text, err := g.generate(timeoutCtx, in)
		if err != nil {
			g.log.IntegrationError("genai", "rejection rationale", err)
		} else if text != "" {
			return text
		}
	}
	return FallbackRationale(in)
}

func (g *Generator) generate(ctx context.Context, in Input) (string, error) {
	prompt := fmt.Sprintf(
		"Write one short, polite sentence in plain business Japanese-English explaining why a %s request for lead %q was rejected. "+
			"Facts: reason category %q; contact effort %d calls, %d SMS, %d mails, %d visits; %d competing merchants, %d actively working the lead. "+
			"Do not promise anything, do not apologize twice, no markdown.",
		in.Kind, in.LeadName, in.ReasonCategory,
		in.CallCount, in.SMSCount, in.MailCount, in.VisitCount,
		in.CompetitorCount, in.ActiveCompetitors,
	)

	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.GetRationaleModel(), genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

// Contact effort at or above this total reads as a worked lead.
const workedLeadThreshold = 3

// FallbackRationale renders the deterministic template from contact counts
// and competitor presence.
func FallbackRationale(in Input) string {
	contacts := in.CallCount + in.SMSCount + in.MailCount + in.VisitCount

	var b strings.Builder
	fmt.Fprintf(&b, "The %s request was reviewed and declined.", in.Kind)

	if contacts < workedLeadThreshold {
		fmt.Fprintf(&b, " Recorded contact effort is low (%d attempts), so further follow-up is expected first.", contacts)
	} else {
		fmt.Fprintf(&b, " Contact history (%d attempts) was taken into account.", contacts)
	}

	if in.ActiveCompetitors > 0 {
		fmt.Fprintf(&b, " %d competing merchants are actively working this lead, which indicates it remains viable.", in.ActiveCompetitors)
	} else if in.CompetitorCount > 0 {
		fmt.Fprintf(&b, " %d other merchants also hold this lead.", in.CompetitorCount)
	}

	return b.String()
}
