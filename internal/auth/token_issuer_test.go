package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestIssuer(secret string, clock func() time.Time) *TokenIssuer {
	return NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte(secret),
		Issuer:        "mydiary-auth",
		Audience:      "mydiary-api",
		TokenTTL:      2 * time.Hour,
		Clock:         clock,
	})
}

func TestIssueTokenRoundTrip(t *testing.T) {
	clock := func() time.Time { return time.Unix(1700000000, 0).UTC() }
	issuer := newTestIssuer("test-secret", clock)

	token, expiresIn, err := issuer.IssueToken(context.Background(), "a@b.com", 1690000000)
	if err != nil {
		t.Fatalf("unexpected issue error: %v", err)
	}
	if expiresIn != int64((2 * time.Hour).Seconds()) {
		t.Fatalf("unexpected expiry seconds: %d", expiresIn)
	}

	claims, err := issuer.ValidateToken(token)
	if err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if claims.Subject != "a@b.com" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.CreatedOn != 1690000000 {
		t.Fatalf("unexpected created_on claim: %d", claims.CreatedOn)
	}
}

func TestIssueTokenRequiresEmail(t *testing.T) {
	issuer := newTestIssuer("test-secret", nil)

	if _, _, err := issuer.IssueToken(context.Background(), "  ", 1690000000); err == nil {
		t.Fatalf("expected error for empty email")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	issueClock := func() time.Time { return time.Unix(1700000000, 0).UTC() }
	issuer := newTestIssuer("test-secret", issueClock)

	token, _, err := issuer.IssueToken(context.Background(), "a@b.com", 1690000000)
	if err != nil {
		t.Fatalf("unexpected issue error: %v", err)
	}

	lateClock := func() time.Time { return time.Unix(1700000000, 0).UTC().Add(3 * time.Hour) }
	validator := newTestIssuer("test-secret", lateClock)

	_, err = validator.ValidateToken(token)
	if !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected expired token error, got %v", err)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	clock := func() time.Time { return time.Unix(1700000000, 0).UTC() }
	issuer := newTestIssuer("test-secret", clock)
	other := newTestIssuer("other-secret", clock)

	token, _, err := issuer.IssueToken(context.Background(), "a@b.com", 1690000000)
	if err != nil {
		t.Fatalf("unexpected issue error: %v", err)
	}

	if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token error, got %v", err)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	issuer := newTestIssuer("test-secret", nil)

	if _, err := issuer.ValidateToken("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token error, got %v", err)
	}
}
