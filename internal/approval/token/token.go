// Package token signs and verifies the opaque decision tokens embedded in
// approval messages. A token encodes one (kind, request, decision) triple so
// the callback endpoint never trusts client-supplied fields.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Decisions carried in a token.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// Tokens outlive the request window by a margin so a slow approver can still
// decide a request submitted on day seven.
const tokenTTL = 30 * 24 * time.Hour

type Claims struct {
	Kind      string    `json:"kind"`
	RequestID uuid.UUID `json:"requestId"`
	Decision  string    `json:"decision"`
	jwt.RegisteredClaims
}

type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign produces a decision token for one button of an approval message.
func (s *Signer) Sign(kind string, requestID uuid.UUID, decision string) (string, error) {
	if decision != DecisionApprove && decision != DecisionReject {
		return "", fmt.Errorf("invalid decision %q", decision)
	}

	now := time.Now()
	claims := Claims{
		Kind:      kind,
		RequestID: requestID,
		Decision:  decision,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse verifies the signature and returns the embedded claims.
func (s *Signer) Parse(tokenString string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return Claims{}, err
	}
	if !parsed.Valid {
		return Claims{}, fmt.Errorf("invalid token")
	}
	if claims.Decision != DecisionApprove && claims.Decision != DecisionReject {
		return Claims{}, fmt.Errorf("invalid decision %q", claims.Decision)
	}
	return claims, nil
}
