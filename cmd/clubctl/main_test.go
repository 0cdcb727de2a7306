package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clubhire.org/internal/auth"
	"clubhire.org/internal/devbackend"
)

func setup(t *testing.T) string {
	t.Helper()
	tokens, err := auth.NewTokens("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	backend, err := devbackend.New(tokens)
	if err != nil {
		t.Fatalf("devbackend.New: %v", err)
	}
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	tokenFile := filepath.Join(t.TempDir(), "token")
	t.Setenv("CLUBHIRE_BACKEND_URL", srv.URL)
	t.Setenv("CLUBHIRE_TOKEN_FILE", tokenFile)
	return tokenFile
}

func runCmd(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestLoginPersistsAcrossInvocations(t *testing.T) {
	tokenFile := setup(t)

	code, out, errOut := runCmd(t, "login", "-phone", "13800000002", "-password", "interviewer123")
	if code != 0 || !strings.Contains(out, "home /interviewer/tasks") {
		t.Fatalf("login: %d %q %q", code, out, errOut)
	}
	if _, err := os.Stat(tokenFile); err != nil {
		t.Fatalf("token file missing: %v", err)
	}

	code, out, _ = runCmd(t, "whoami")
	if code != 0 || !strings.Contains(out, `"role": "interviewer"`) {
		t.Fatalf("whoami: %d %q", code, out)
	}

	code, out, _ = runCmd(t, "get", "/api/interviewer/tasks")
	if code != 0 || !strings.Contains(out, "Room 101") {
		t.Fatalf("get: %d %q", code, out)
	}

	code, out, _ = runCmd(t, "nav", "/admin/dashboard")
	if code != 0 || !strings.Contains(out, `"redirect": "/interviewer/tasks"`) {
		t.Fatalf("nav: %d %q", code, out)
	}

	code, out, _ = runCmd(t, "logout")
	if code != 0 || !strings.Contains(out, "-> /login") {
		t.Fatalf("logout: %d %q", code, out)
	}
	if code, _, errOut := runCmd(t, "whoami"); code != 1 || !strings.Contains(errOut, "not logged in") {
		t.Fatalf("whoami after logout: %d %q", code, errOut)
	}
}

func TestRejectedTokenIsForgotten(t *testing.T) {
	tokenFile := setup(t)
	if err := os.WriteFile(tokenFile, []byte("stale"), 0o600); err != nil {
		t.Fatalf("write token: %v", err)
	}
	code, out, errOut := runCmd(t, "get", "/api/auth/me")
	if code != 1 || !strings.Contains(errOut, "session expired") || !strings.Contains(out, "-> /login") {
		t.Fatalf("expected expiry, got %d %q %q", code, out, errOut)
	}
	if _, err := os.Stat(tokenFile); !os.IsNotExist(err) {
		t.Fatalf("token file should be removed, stat err=%v", err)
	}
}

func TestSmoke(t *testing.T) {
	setup(t)
	if code, out, errOut := runCmd(t, "smoke"); code != 0 || !strings.Contains(out, "PASS") {
		t.Fatalf("smoke: %d %q %q", code, out, errOut)
	}
}

func TestUsage(t *testing.T) {
	setup(t)
	if code, _, errOut := runCmd(t, "bogus"); code != 2 || !strings.Contains(errOut, "usage") {
		t.Fatalf("expected usage, got %d %q", code, errOut)
	}
	if code, _, errOut := runCmd(t, "get", "-shape", "odd", "/x"); code != 1 || !strings.Contains(errOut, "unknown shape") {
		t.Fatalf("expected shape error, got %d %q", code, errOut)
	}
}
