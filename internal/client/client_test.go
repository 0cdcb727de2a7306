package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"clubhire.org/internal/session"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) (*Client, *session.Session) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	sess := session.New(session.NewMemoryStore())
	c, err := New(Config{BaseURL: srv.URL}, sess, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, sess
}

func TestBearerHeaderOnlyWithToken(t *testing.T) {
	var got []string
	c, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("Authorization"))
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("missing request id")
		}
		_, _ = w.Write([]byte(`{}`))
	})
	ctx := context.Background()
	if _, err := Get[map[string]any](ctx, c, "/api/auth/me", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if err := sess.SetToken(ctx, "tok-9"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if _, err := Get[map[string]any](ctx, c, "/api/auth/me", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got[0] != "" || got[1] != "Bearer tok-9" {
		t.Fatalf("unexpected Authorization headers: %q", got)
	}
}

func TestGetUnwrapsByPrefix(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "2" {
			t.Errorf("query not forwarded: %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 200, "data": map[string]any{"total": 3}, "message": ""})
	})
	got, err := Get[struct {
		Total int `json:"total"`
	}](context.Background(), c, "/api/student/signup/applications", url.Values{"page": {"2"}})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Total != 3 {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestDeclaredShapeOverridesPrefix(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":200,"data":{"n":1}}`))
	})
	got, err := Post[map[string]any](context.Background(), c, "/api/admin/dashboard", nil, Wrapped())
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if got["n"] != float64(1) {
		t.Fatalf("expected unwrapped data, got %v", got)
	}

	raw, err := Get[map[string]any](context.Background(), c, "/api/student/profile", nil, Raw())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, ok := raw["data"]; !ok {
		t.Fatalf("raw declaration must not unwrap: %v", raw)
	}
}

func TestUnauthorizedClearsSessionAndRedirects(t *testing.T) {
	var redirected string
	c, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"token expired"}`))
	}, WithRedirect(func(p string) { redirected = p }))

	ctx := context.Background()
	_ = sess.SetToken(ctx, "tok")
	sess.SetProfile(session.Profile{ID: 1})

	for _, path := range []string{"/api/clubs/1", "/api/student/profile", "/api/auth/me"} {
		_ = sess.SetToken(ctx, "tok")
		redirected = ""
		_, err := Get[map[string]any](ctx, c, path, nil)
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("%s: expected ErrUnauthorized, got %v", path, err)
		}
		if Message(err) != MsgSessionExpired {
			t.Fatalf("%s: unexpected message %q", path, Message(err))
		}
		if sess.Token() != "" || sess.HasProfile() {
			t.Fatalf("%s: session not cleared", path)
		}
		if redirected != "/login" {
			t.Fatalf("%s: expected redirect to /login, got %q", path, redirected)
		}
	}
}

func TestOtherErrorsHaveNoSideEffects(t *testing.T) {
	c, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	ctx := context.Background()
	_ = sess.SetToken(ctx, "tok")
	_, err := Delete[any](ctx, c, "/api/admin/clubs/1", nil)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if sess.Token() != "tok" {
		t.Fatalf("403 must not clear the session")
	}
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: base}, session.New(nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = Put[any](context.Background(), c, "/api/tickets/1/close", nil)
	if !errors.Is(err, ErrNetwork) || Message(err) != MsgNetwork {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestNewRequiresSession(t *testing.T) {
	if _, err := New(Config{BaseURL: "http://localhost"}, nil); err == nil {
		t.Fatal("expected error without session")
	}
}
