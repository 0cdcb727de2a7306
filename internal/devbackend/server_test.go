package devbackend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"clubhire.org/internal/api"
	"clubhire.org/internal/auth"
	"clubhire.org/internal/client"
	"clubhire.org/internal/roles"
	"clubhire.org/internal/session"
)

type harness struct {
	t         *testing.T
	srv       *httptest.Server
	sess      *session.Session
	c         *client.Client
	redirects []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	tokens, err := auth.NewTokens("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	backend, err := New(tokens)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	h := &harness{t: t, srv: srv, sess: session.New(nil)}
	h.c, err = client.New(client.Config{BaseURL: srv.URL, HTTPClient: srv.Client()}, h.sess,
		client.WithRedirect(func(p string) { h.redirects = append(h.redirects, p) }))
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	return h
}

func (h *harness) login(phone, password string) {
	h.t.Helper()
	if _, err := h.sess.Login(context.Background(), api.Authenticator{Client: h.c}, phone, password); err != nil {
		h.t.Fatalf("login %s: %v", phone, err)
	}
}

func TestLoginLoadsProfile(t *testing.T) {
	h := newHarness(t)
	h.login("13800000001", "admin123")

	if !h.sess.Authenticated() {
		t.Fatalf("expected token")
	}
	role, ok := h.sess.PrimaryRole()
	if !ok || role != roles.Admin {
		t.Fatalf("expected admin primary role, got %q", role)
	}
	p := h.sess.Profile()
	if p == nil || p.DisplayName() != "Club Admin" || p.Roles[0].ClubID == nil {
		t.Fatalf("unexpected profile %+v", p)
	}
}

func TestBadPasswordIsUnauthorized(t *testing.T) {
	h := newHarness(t)
	_, err := h.sess.Login(context.Background(), api.Authenticator{Client: h.c}, "13800000001", "wrong")
	if !errors.Is(err, client.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if len(h.redirects) != 1 || h.redirects[0] != "/login" {
		t.Fatalf("expected login redirect, got %v", h.redirects)
	}
}

func TestMissingFieldsAreValidationErrors(t *testing.T) {
	h := newHarness(t)
	_, err := api.Login(context.Background(), h.c, "13800000001", "")
	if !errors.Is(err, client.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if got := client.Message(err); got != "body.password: field required" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestDirectReturnFamily(t *testing.T) {
	h := newHarness(t)
	h.login("13800000001", "admin123")

	d, err := api.AdminDashboard(context.Background(), h.c)
	if err != nil {
		t.Fatalf("AdminDashboard: %v", err)
	}
	if d.ClubID != 1 || d.ClubName != "Robotics Club" || d.Interviewers != 1 {
		t.Fatalf("unexpected dashboard %+v", d)
	}

	page, err := api.SignupApplications(context.Background(), h.c, api.SignupQuery{})
	if err != nil {
		t.Fatalf("SignupApplications: %v", err)
	}
	if page.Total != 0 || page.Items == nil {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestDirectReturnFamilyUnderAutoShape(t *testing.T) {
	h := newHarness(t)
	h.login("13800000001", "admin123")

	raw, err := h.c.Do(context.Background(), http.MethodGet, "/api/admin/dashboard", nil, nil)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	var d api.Dashboard
	if err := json.Unmarshal(raw, &d); err != nil || d.ClubID != 1 {
		t.Fatalf("dashboard not returned as-is: %s (%v)", raw, err)
	}
}

func TestWrappedFamily(t *testing.T) {
	h := newHarness(t)
	h.login("13800000002", "interviewer123")

	tasks, err := api.MyInterviewTasks(context.Background(), h.c)
	if err != nil {
		t.Fatalf("MyInterviewTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Location != "Room 101" {
		t.Fatalf("unexpected tasks %+v", tasks)
	}

	invs, err := api.MyInvitations(context.Background(), h.c)
	if err != nil || len(invs) != 1 {
		t.Fatalf("MyInvitations: %v %+v", err, invs)
	}
	if _, err := api.AcceptInvitation(context.Background(), h.c, invs[0].ID); err != nil {
		t.Fatalf("AcceptInvitation: %v", err)
	}
	_, err = api.AcceptInvitation(context.Background(), h.c, invs[0].ID)
	if errors.Is(err, client.ErrUnauthorized) || client.Message(err) != "Invitation already answered" {
		t.Fatalf("expected server message, got %v", err)
	}
}

func TestStudentSignupFlow(t *testing.T) {
	h := newHarness(t)
	h.login("13800000003", "student123")
	ctx := context.Background()

	_, err := api.MyApplication(ctx, h.c)
	if !errors.Is(err, client.ErrEnvelope) || client.Message(err) != "no application submitted" {
		t.Fatalf("expected envelope failure, got %v", err)
	}

	res, err := api.SubmitSignup(ctx, h.c, api.SubmitSignupParams{RecruitmentSessionID: 1, PositionIDs: []int64{2}, SelfIntro: "hi"})
	if err != nil || res.Status != "PENDING" {
		t.Fatalf("SubmitSignup: %v %+v", err, res)
	}
	mine, err := api.MySignups(ctx, h.c, api.SignupQuery{})
	if err != nil || mine.Total != 1 || mine.Items[0].ID != res.SignupID {
		t.Fatalf("MySignups: %v %+v", err, mine)
	}
	app, err := api.MyApplication(ctx, h.c)
	if err != nil || app.Introduction != "hi" {
		t.Fatalf("MyApplication: %v %+v", err, app)
	}

	_, err = api.SubmitSignup(ctx, h.c, api.SubmitSignupParams{})
	if !errors.Is(err, client.ErrEnvelope) {
		t.Fatalf("expected envelope failure, got %v", err)
	}
}

func TestAdminAuditsSignup(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.login("13800000003", "student123")
	res, err := api.SubmitSignup(ctx, h.c, api.SubmitSignupParams{RecruitmentSessionID: 1, PositionIDs: []int64{2}})
	if err != nil {
		t.Fatalf("SubmitSignup: %v", err)
	}
	if err := h.sess.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	h.login("13800000001", "admin123")
	out, err := api.AuditSignup(ctx, h.c, res.SignupID, api.SignupApproved, "")
	if err != nil || out.NewStatus != "APPROVED" {
		t.Fatalf("AuditSignup: %v %+v", err, out)
	}
	d, _ := api.AdminDashboard(ctx, h.c)
	if d.AcceptanceRate != 1 || d.PendingSignups != 0 {
		t.Fatalf("unexpected dashboard %+v", d)
	}

	users, err := api.SearchUsers(ctx, h.c, "1380000000")
	if err != nil || len(users) != 3 {
		t.Fatalf("SearchUsers: %v %+v", err, users)
	}
}

func TestForbiddenLeavesSessionAlone(t *testing.T) {
	h := newHarness(t)
	h.login("13800000003", "student123")

	_, err := api.AdminDashboard(context.Background(), h.c)
	if !errors.Is(err, client.ErrForbidden) || client.Message(err) != "no permission" {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if !h.sess.Authenticated() || !h.sess.HasProfile() || len(h.redirects) != 0 {
		t.Fatalf("403 must not touch the session")
	}
}

func TestInvalidTokenExpiresSession(t *testing.T) {
	h := newHarness(t)
	if err := h.sess.SetToken(context.Background(), "forged"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	_, err := api.Me(context.Background(), h.c)
	if !errors.Is(err, client.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if h.sess.Authenticated() {
		t.Fatalf("401 must clear the session")
	}
}

func TestRegisterAndInitialize(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sent, err := api.SendCode(ctx, h.c, "13900000009", api.SceneRegister)
	if err != nil || sent.DevCode == nil {
		t.Fatalf("SendCode: %v %+v", err, sent)
	}
	if _, err := api.Register(ctx, h.c, "13900000009", "000000x"); err == nil {
		t.Fatalf("expected bad code to fail")
	}
	sent, _ = api.SendCode(ctx, h.c, "13900000009", api.SceneRegister)
	res, err := api.Register(ctx, h.c, "13900000009", *sent.DevCode)
	if err != nil || res.AccessToken == "" {
		t.Fatalf("Register: %v %+v", err, res)
	}
	if err := h.sess.SetToken(ctx, res.AccessToken); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	me, err := api.Me(ctx, h.c)
	if err != nil || me.IsInitialized || len(me.Roles) != 0 {
		t.Fatalf("unexpected fresh profile %+v (%v)", me, err)
	}

	_, err = api.InitAccount(ctx, h.c, api.InitAccountParams{Password: "pw", Name: "New", Role: "judge"})
	if !errors.Is(err, client.ErrValidation) || !strings.Contains(client.Message(err), "body.role") {
		t.Fatalf("expected role validation error, got %v", err)
	}
	if _, err := api.InitAccount(ctx, h.c, api.InitAccountParams{Password: "pw", Name: "New", Role: "student"}); err != nil {
		t.Fatalf("InitAccount: %v", err)
	}
	me, _ = api.Me(ctx, h.c)
	if !me.IsInitialized || !me.RoleSet().Has(roles.Student) {
		t.Fatalf("account not initialized: %+v", me)
	}

	if _, err := api.ChangePassword(ctx, h.c, api.ChangePasswordParams{OldPassword: "pw", NewPassword: "pw2"}); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	_ = h.sess.Clear(ctx)
	h.login("13900000009", "pw2")
}

func TestUnknownAPIPathIsNotFound(t *testing.T) {
	h := newHarness(t)
	_, err := h.c.Do(context.Background(), http.MethodGet, "/api/nowhere", nil, nil)
	if !errors.Is(err, client.ErrNotFound) || client.Message(err) != "resource not found" {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
