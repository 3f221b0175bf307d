package token

import (
	"testing"

	"github.com/google/uuid"
)

func TestSignAndParseRoundTrip(t *testing.T) {
	signer := NewSigner("test-secret")
	requestID := uuid.New()

	raw, err := signer.Sign("cancellation", requestID, DecisionApprove)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	claims, err := signer.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Kind != "cancellation" || claims.RequestID != requestID || claims.Decision != DecisionApprove {
		t.Errorf("claims = %+v", claims)
	}
}

func TestSignRejectsUnknownDecision(t *testing.T) {
	signer := NewSigner("test-secret")
	if _, err := signer.Sign("extension", uuid.New(), "maybe"); err == nil {
		t.Error("expected error for unknown decision")
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	raw, err := NewSigner("secret-a").Sign("extension", uuid.New(), DecisionReject)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := NewSigner("secret-b").Parse(raw); err == nil {
		t.Error("expected signature verification to fail")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := NewSigner("secret").Parse("not-a-token"); err == nil {
		t.Error("expected parse error")
	}
}
