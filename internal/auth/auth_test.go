package auth

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	tok, err := NewTokens("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	signed, exp, err := tok.Issue(42, []string{"CLUB_ADMIN", "STUDENT", "CLUB_ADMIN"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expected future expiry, got %v", exp)
	}
	claims, err := tok.Parse(signed)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	id, err := claims.UserID()
	if err != nil || id != 42 {
		t.Fatalf("unexpected subject %q (%v)", claims.Subject, err)
	}
	if len(claims.Roles) != 2 || !slices.Contains(claims.Roles, "CLUB_ADMIN") {
		t.Fatalf("roles not preserved: %v", claims.Roles)
	}
	if claims.ID == "" {
		t.Fatalf("expected jti")
	}
}

func TestParseRejects(t *testing.T) {
	tok, _ := NewTokens("test-secret", time.Hour)
	other, _ := NewTokens("other-secret", time.Hour)
	foreign, _, _ := other.Issue(1, nil)

	expired, _ := NewTokens("test-secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, _, _ := expired.Issue(1, nil)

	for name, in := range map[string]string{"empty": "", "garbage": "abc.def", "foreign": foreign, "expired": old} {
		if _, err := tok.Parse(in); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestNewTokensRequiresSecret(t *testing.T) {
	if _, err := NewTokens("  ", 0); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "Bearer abc", want: "abc", ok: true},
		{in: "bearer  abc ", want: "abc", ok: true},
		{in: "Basic abc"},
		{in: "Bearer "},
		{in: ""},
	}
	for _, tc := range cases {
		got, err := BearerToken(tc.in)
		if (err == nil) != tc.ok || got != tc.want {
			t.Fatalf("BearerToken(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := VerifyPassword(hash, "s3cret"); err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if err := VerifyPassword(hash, "nope"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials, got %v", err)
	}
	if _, err := HashPassword(""); !errors.Is(err, ErrPasswordEmpty) {
		t.Fatalf("expected ErrPasswordEmpty, got %v", err)
	}
}

func TestClaimsContext(t *testing.T) {
	ctx := ContextWithClaims(context.Background(), &Claims{Roles: []string{"STUDENT"}})
	c, ok := ClaimsFromContext(ctx)
	if !ok || c.Roles[0] != "STUDENT" {
		t.Fatalf("claims not found in context")
	}
	if _, ok := ClaimsFromContext(context.Background()); ok {
		t.Fatalf("unexpected claims in empty context")
	}
}
