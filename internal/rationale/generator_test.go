package rationale

import (
	"strings"
	"testing"
)

func TestFallbackRationaleLowEffort(t *testing.T) {
	got := FallbackRationale(Input{
		Kind:      "cancellation",
		CallCount: 1,
	})
	if !strings.Contains(got, "declined") {
		t.Errorf("rationale should state the outcome, got %q", got)
	}
	if !strings.Contains(got, "1 attempts") {
		t.Errorf("rationale should cite contact effort, got %q", got)
	}
}

func TestFallbackRationaleWorkedLead(t *testing.T) {
	got := FallbackRationale(Input{
		Kind:       "extension",
		CallCount:  2,
		VisitCount: 2,
	})
	if strings.Contains(got, "further follow-up is expected") {
		t.Errorf("4 attempts should not read as low effort, got %q", got)
	}
}

func TestFallbackRationaleCompetitorPresence(t *testing.T) {
	active := FallbackRationale(Input{Kind: "cancellation", CompetitorCount: 3, ActiveCompetitors: 2})
	if !strings.Contains(active, "2 competing merchants are actively working") {
		t.Errorf("active competitors should appear, got %q", active)
	}

	passive := FallbackRationale(Input{Kind: "cancellation", CompetitorCount: 3})
	if !strings.Contains(passive, "3 other merchants") {
		t.Errorf("passive competitor count should appear, got %q", passive)
	}

	alone := FallbackRationale(Input{Kind: "cancellation"})
	if strings.Contains(alone, "merchants") {
		t.Errorf("no competitor text expected, got %q", alone)
	}
}
