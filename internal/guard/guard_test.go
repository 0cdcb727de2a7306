package guard

import (
	"context"
	"errors"
	"testing"

	"clubhire.org/internal/roles"
	"clubhire.org/internal/session"
)

type stubFetcher struct {
	profile session.Profile
	err     error
	calls   int
}

func (s *stubFetcher) Me(context.Context) (session.Profile, error) {
	s.calls++
	return s.profile, s.err
}

func withRoles(codes ...string) session.Profile {
	p := session.Profile{ID: 1, Phone: "13800000000"}
	for _, c := range codes {
		p.Roles = append(p.Roles, session.RoleRecord{Code: c})
	}
	return p
}

func loggedIn(t *testing.T, codes ...string) *session.Session {
	t.Helper()
	sess := session.New(nil)
	if err := sess.SetToken(context.Background(), "tok"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	sess.SetProfile(withRoles(codes...))
	return sess
}

func TestUnauthenticatedRedirectsToLoginWithReturnPath(t *testing.T) {
	g := New(session.New(nil), &stubFetcher{})
	d := g.Navigate(context.Background(), "/admin/dashboard")
	if d.Allowed() || d.Redirect != "/login?redirect=/admin/dashboard" {
		t.Fatalf("unexpected decision: %+v", d)
	}
	if d.Trail[0] != RequiresAuthUnauthenticated {
		t.Fatalf("unexpected trail: %v", d.Trail)
	}
}

func TestPublicPagesAllowedWithoutToken(t *testing.T) {
	g := New(session.New(nil), nil)
	for _, p := range []string{"/login", "/register", "/forget-password?x=1"} {
		d := g.Navigate(context.Background(), p)
		if !d.Allowed() || d.Trail[0] != PublicPage {
			t.Fatalf("%s: unexpected decision %+v", p, d)
		}
	}
}

func TestLoginPageRedirectsAuthenticatedUserHome(t *testing.T) {
	sess := session.New(nil)
	_ = sess.SetToken(context.Background(), "tok")
	f := &stubFetcher{profile: withRoles("INTERVIEWER")}
	g := New(sess, f)

	d := g.Navigate(context.Background(), "/login")
	if d.Redirect != InterviewerHome {
		t.Fatalf("expected interviewer home, got %+v", d)
	}
	if f.calls != 1 {
		t.Fatalf("expected profile fetch, got %d calls", f.calls)
	}
}

func TestLoginPageProfileFailureClearsAndAllows(t *testing.T) {
	sess := session.New(nil)
	_ = sess.SetToken(context.Background(), "tok")
	g := New(sess, &stubFetcher{err: errors.New("401")})

	d := g.Navigate(context.Background(), "/login")
	if !d.Allowed() {
		t.Fatalf("login page should be shown, got %+v", d)
	}
	if sess.Authenticated() {
		t.Fatalf("session should be cleared")
	}
}

func TestRootRedirectsByPrimaryRole(t *testing.T) {
	cases := []struct {
		codes []string
		want  string
	}{
		{codes: []string{"CLUB_ADMIN", "STUDENT"}, want: AdminHome},
		{codes: []string{"interviewer"}, want: InterviewerHome},
		{codes: []string{"STUDENT"}, want: StudentHome},
		{codes: nil, want: StudentHome},
	}
	for _, tc := range cases {
		g := New(loggedIn(t, tc.codes...), nil)
		d := g.Navigate(context.Background(), "/")
		if d.Redirect != tc.want {
			t.Fatalf("roles %v: redirect %q, want %q", tc.codes, d.Redirect, tc.want)
		}
	}
}

func TestMissingProfileIsFetched(t *testing.T) {
	sess := session.New(nil)
	_ = sess.SetToken(context.Background(), "tok")
	f := &stubFetcher{profile: withRoles("ADMIN")}
	g := New(sess, f)

	d := g.Navigate(context.Background(), "/admin/statistics")
	if !d.Allowed() {
		t.Fatalf("expected allowed, got %+v", d)
	}
	want := []State{RequiresAuthNeedsProfile, RequiresAuthRoleCheck, Allowed}
	if len(d.Trail) != len(want) {
		t.Fatalf("trail %v, want %v", d.Trail, want)
	}
	for i := range want {
		if d.Trail[i] != want[i] {
			t.Fatalf("trail %v, want %v", d.Trail, want)
		}
	}
	if !sess.HasProfile() {
		t.Fatalf("profile should be cached")
	}
}

func TestProfileFailureClearsSession(t *testing.T) {
	sess := session.New(nil)
	_ = sess.SetToken(context.Background(), "tok")
	g := New(sess, &stubFetcher{err: errors.New("boom")})

	d := g.Navigate(context.Background(), "/student/apply")
	if d.Redirect != LoginPath {
		t.Fatalf("expected login redirect, got %+v", d)
	}
	if sess.Authenticated() {
		t.Fatalf("session should be cleared")
	}
}

func TestStudentCannotReachAdminRoute(t *testing.T) {
	g := New(loggedIn(t, "STUDENT"), nil)
	d := g.Navigate(context.Background(), "/admin/dashboard")
	if d.Allowed() {
		t.Fatalf("student must not reach admin route")
	}
	if d.Redirect != StudentHome {
		t.Fatalf("expected student home, got %q", d.Redirect)
	}
}

func TestAdminAliasesMatchAdminRoutes(t *testing.T) {
	for _, code := range []string{"CLUB_ADMIN", "ADMIN", "admin"} {
		g := New(loggedIn(t, code), nil)
		if d := g.Navigate(context.Background(), "/admin/tickets"); !d.Allowed() {
			t.Fatalf("%s: expected allowed, got %+v", code, d)
		}
	}
}

func TestParamRouteInheritsRoles(t *testing.T) {
	g := New(loggedIn(t, "INTERVIEWER"), nil)
	d := g.Navigate(context.Background(), "/interviewer/score/17")
	if !d.Allowed() || d.Match == nil || d.Match.Params["id"] != "17" {
		t.Fatalf("unexpected decision: %+v", d)
	}
	if d.Title != "Score - "+AppName {
		t.Fatalf("unexpected title %q", d.Title)
	}

	g = New(loggedIn(t, "STUDENT"), nil)
	if d := g.Navigate(context.Background(), "/interviewer/score/17"); d.Redirect != StudentHome {
		t.Fatalf("expected student home, got %+v", d)
	}
}

func TestRolelessUserIsNotLooped(t *testing.T) {
	g := New(loggedIn(t), nil)
	d := g.Navigate(context.Background(), "/student/apply")
	if d.Redirect != InitPath {
		t.Fatalf("expected init page, got %+v", d)
	}
	if d := g.Navigate(context.Background(), InitPath); !d.Allowed() {
		t.Fatalf("init page should be allowed, got %+v", d)
	}
}

func TestCustomRoutes(t *testing.T) {
	routes := []Route{{Path: "/ops", AllowedRoles: []roles.Role{roles.Interviewer, roles.Admin}}}
	g := New(loggedIn(t, "CLUB_ADMIN"), nil, WithRoutes(routes), WithPublicPaths("/login"))
	if d := g.Navigate(context.Background(), "/ops"); !d.Allowed() {
		t.Fatalf("expected allowed, got %+v", d)
	}
	if d := g.Navigate(context.Background(), "/register"); !d.Allowed() || d.Trail[0] == PublicPage {
		t.Fatalf("register is no longer public, got %+v", d)
	}
}

func TestEmptyAllowlistDeniesEveryRole(t *testing.T) {
	routes := []Route{
		{Path: "/locked", AllowedRoles: []roles.Role{}},
		{Path: "/open"},
	}
	g := New(loggedIn(t, "STUDENT"), nil, WithRoutes(routes))
	d := g.Navigate(context.Background(), "/locked")
	if d.Allowed() || d.Redirect != g.Home() {
		t.Fatalf("expected redirect home, got %+v", d)
	}
	if n := len(d.Trail); n < 2 || d.Trail[n-2] != RequiresAuthRoleCheck {
		t.Fatalf("unexpected trail: %v", d.Trail)
	}
	if d := g.Navigate(context.Background(), "/open"); !d.Allowed() {
		t.Fatalf("nil allowlist should admit any user, got %+v", d)
	}
}

func TestEndToEndRedirectAfterLogin(t *testing.T) {
	sess := session.New(nil)
	f := &stubFetcher{profile: withRoles("CLUB_ADMIN")}
	g := New(sess, f)
	ctx := context.Background()

	d := g.Navigate(ctx, "/admin/dashboard")
	if d.Redirect != "/login?redirect=/admin/dashboard" {
		t.Fatalf("unexpected redirect %q", d.Redirect)
	}

	// Login: token first, then profile.
	_ = sess.SetToken(ctx, "tok")
	sess.SetProfile(f.profile)

	back, ok := SafeRedirect("/admin/dashboard")
	if !ok {
		t.Fatalf("preserved target rejected")
	}
	if d := g.Navigate(ctx, back); !d.Allowed() {
		t.Fatalf("expected allowed after login, got %+v", d)
	}
}

func TestSafeRedirect(t *testing.T) {
	cases := map[string]bool{
		"/admin/dashboard":      true,
		"/student/apply?tab=2":  true,
		"":                      false,
		"admin":                 false,
		"//evil.example":        false,
		"https://evil.example/": false,
		"/\\evil":               false,
		"/login?redirect=/x":    false,
	}
	for in, want := range cases {
		if _, ok := SafeRedirect(in); ok != want {
			t.Fatalf("SafeRedirect(%q) ok=%v, want %v", in, ok, want)
		}
	}
}

func TestTableMatch(t *testing.T) {
	tbl := NewTable(DefaultRoutes())
	m, ok := tbl.Match("/student/tickets?page=1")
	if !ok || m.FullPath != "/student/tickets" || len(m.AllowedRoles) != 1 || m.AllowedRoles[0] != roles.Student {
		t.Fatalf("unexpected match: %+v, %v", m, ok)
	}
	if _, ok := tbl.Match("/nowhere"); ok {
		t.Fatalf("unexpected match for unknown path")
	}
	m, ok = tbl.Match("/init")
	if !ok || m.AllowedRoles != nil {
		t.Fatalf("init should match without roles: %+v", m)
	}
}
