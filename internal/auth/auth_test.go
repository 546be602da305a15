package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef-test"

func TestPasswords_HashAndCheck(t *testing.T) {
	p, err := NewPasswords(bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	hash, err := p.Hash("s3cret!")
	if err != nil {
		t.Fatal(err)
	}
	if !IsHashed(hash) {
		t.Fatalf("hash %q not recognised as bcrypt", hash)
	}
	if !p.Check(hash, "s3cret!") {
		t.Fatalf("correct password rejected")
	}
	if p.Check(hash, "wrong") {
		t.Fatalf("wrong password accepted")
	}
	if p.Check("plaintext", "plaintext") {
		t.Fatalf("plaintext stored value must never match")
	}
}

func TestNewPasswords_RejectsBadCost(t *testing.T) {
	if _, err := NewPasswords(2); err == nil {
		t.Fatalf("expected error for cost below minimum")
	}
	if _, err := NewPasswords(bcrypt.MaxCost + 1); err == nil {
		t.Fatalf("expected error for cost above maximum")
	}
}

func TestIsHashed(t *testing.T) {
	for in, want := range map[string]bool{
		"$2a$10$abc": true,
		"$2b$12$abc": true,
		"$2y$10$abc": true,
		"password":   false,
		"":           false,
		"$1$md5":     false,
	} {
		if got := IsHashed(in); got != want {
			t.Errorf("%q: got %v want %v", in, got, want)
		}
	}
}

func TestTokens_RoundTrip(t *testing.T) {
	tokens, err := NewTokens(testSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	signed, err := tokens.Issue(42, "a@b.co")
	if err != nil {
		t.Fatal(err)
	}

	claims, err := tokens.Verify(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	id, _ := claims.UserID()
	if id != 42 || claims.Email != "a@b.co" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestTokens_Expired(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	tokens, _ := NewTokens(testSecret, time.Hour, WithTokenClock(clock))

	signed, err := tokens.Issue(1, "x@y.co")
	if err != nil {
		t.Fatal(err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := tokens.Verify(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokens_RejectsForeignSignatures(t *testing.T) {
	tokens, _ := NewTokens(testSecret, time.Hour)
	other, _ := NewTokens("another-secret-of-length", time.Hour)

	signed, _ := other.Issue(1, "x@y.co")
	if _, err := tokens.Verify(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tokens.Verify(unsigned); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("alg=none must be rejected, got %v", err)
	}

	if _, err := tokens.Verify("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestNewTokens_Validation(t *testing.T) {
	if _, err := NewTokens("short", time.Hour); err == nil {
		t.Fatalf("expected error for short secret")
	}
	if _, err := NewTokens(testSecret, 0); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}

func TestClaimsContext(t *testing.T) {
	if _, ok := ClaimsFromContext(context.Background()); ok {
		t.Fatalf("expected no claims on empty context")
	}
	ctx := WithClaims(context.Background(), &Claims{Email: "a@b.co"})
	c, ok := ClaimsFromContext(ctx)
	if !ok || c.Email != "a@b.co" {
		t.Fatalf("claims not round-tripped")
	}
}
