// Package devbackend is an in-memory stand-in for the recruitment backend.
// It speaks the backend's three response conventions (bare payloads, the
// {code,data,message} envelope and the direct-return admin family) and its
// FastAPI-style error bodies, so the portal and the CLI can run end to end.
package devbackend

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"clubhire.org/internal/api"
	"clubhire.org/internal/audit"
	"clubhire.org/internal/auth"
	"clubhire.org/internal/httpapi"
	"clubhire.org/internal/obs"
	"clubhire.org/internal/roles"
	"clubhire.org/internal/session"
)

// Server is the development backend.
type Server struct {
	mux    *http.ServeMux
	store  *store
	tokens *auth.Tokens
	log    *logrus.Logger
	// exposeCodes returns verification codes in send-code replies.
	exposeCodes bool
	seedUsers   []SeedUser
}

// Option configures a Server.
type Option func(*Server)

// WithSeed replaces the default accounts.
func WithSeed(users []SeedUser) Option {
	return func(s *Server) {
		s.seedUsers = users
	}
}

// WithoutDevCodes hides verification codes from send-code replies.
func WithoutDevCodes() Option {
	return func(s *Server) {
		s.exposeCodes = false
	}
}

// New builds a server with seeded accounts.
func New(tokens *auth.Tokens, opts ...Option) (*Server, error) {
	if tokens == nil {
		return nil, errors.New("devbackend: token signer is required")
	}
	s := &Server{
		mux:         http.NewServeMux(),
		store:       newStore(),
		tokens:      tokens,
		log:         obs.Logger(),
		exposeCodes: true,
		seedUsers:   DefaultSeed(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.store.seed(s.seedUsers); err != nil {
		return nil, err
	}
	s.routes()
	return s, nil
}

// Handler returns the instrumented handler.
func (s *Server) Handler() http.Handler {
	return httpapi.Chain(obs.Instrument(s.mux), httpapi.RequestID, httpapi.LoggingJSON)
}

func (s *Server) routes() {
	httpapi.Health{Service: "clubhire-devbackend"}.Register(s.mux)
	s.mux.Handle("GET /metrics", obs.Handler())

	// Bare payloads.
	s.mux.HandleFunc("POST /api/auth/send-code", s.handleSendCode)
	s.mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.mux.HandleFunc("GET /api/auth/me", s.authenticated(s.handleMe))
	s.mux.HandleFunc("POST /api/auth/init", s.authenticated(s.handleInit))
	s.mux.HandleFunc("POST /api/auth/change-password", s.authenticated(s.handleChangePassword))

	// Direct-return admin and interviewer family.
	s.mux.HandleFunc("GET /api/admin/dashboard", s.requireRole(s.handleDashboard, roles.Admin))
	s.mux.HandleFunc("GET /api/admin/signup/applications", s.requireRole(s.handleAdminSignups, roles.Admin))
	s.mux.HandleFunc("POST /api/admin/signup/applications/{id}/audit", s.requireRole(s.handleAuditSignup, roles.Admin))
	s.mux.HandleFunc("GET /api/interviewer/invitations", s.requireRole(s.handleMyInvitations, roles.Interviewer))
	s.mux.HandleFunc("POST /api/interviewer/invitations/{id}/accept", s.requireRole(s.handleAnswerInvitation(api.InvitationAccepted), roles.Interviewer))
	s.mux.HandleFunc("POST /api/interviewer/invitations/{id}/reject", s.requireRole(s.handleAnswerInvitation(api.InvitationRejected), roles.Interviewer))

	// Enveloped families.
	s.mux.HandleFunc("GET /api/admin/users/search", s.requireRole(s.handleSearchUsers, roles.Admin))
	s.mux.HandleFunc("GET /api/interviewer/tasks", s.requireRole(s.handleTasks, roles.Interviewer))
	s.mux.HandleFunc("POST /api/student/signup/applications", s.requireRole(s.handleSubmitSignup, roles.Student))
	s.mux.HandleFunc("GET /api/student/signup/applications", s.requireRole(s.handleMySignups, roles.Student))
	s.mux.HandleFunc("GET /api/student/application", s.requireRole(s.handleMyApplication, roles.Student))
	s.mux.HandleFunc("GET /api/student/tickets", s.requireRole(s.handleMyTickets, roles.Student))

	s.mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		detail(w, http.StatusNotFound, "Not Found")
	})
}

func (s *Server) issue(w http.ResponseWriter, id int64) {
	_, codes, err := s.store.account(id)
	if err != nil {
		detail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	token, _, err := s.tokens.Issue(id, codes)
	if err != nil {
		s.log.WithError(err).Error("issue token")
		detail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	raw(w, session.LoginResult{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleSendCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
		Scene string `json:"scene"`
	}
	if !decode(w, r, &req) || !required(w, map[string]string{"phone": req.Phone}) {
		return
	}
	code := s.store.sendCode(req.Phone)
	out := api.SendCodeResult{Message: "verification code sent"}
	if s.exposeCodes {
		out.DevCode = &code
	}
	raw(w, out)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
		Code  string `json:"code"`
	}
	if !decode(w, r, &req) || !required(w, map[string]string{"phone": req.Phone, "code": req.Code}) {
		return
	}
	id, err := s.store.register(req.Phone, req.Code)
	switch {
	case errors.Is(err, errBadCode):
		detail(w, http.StatusBadRequest, "Invalid or expired verification code")
		return
	case errors.Is(err, errConflict):
		detail(w, http.StatusBadRequest, "Phone number already registered")
		return
	case err != nil:
		detail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	_ = audit.LogEvent(r.Context(), "devbackend.register", map[string]any{"user_id": id})
	s.issue(w, id)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) || !required(w, map[string]string{"phone": req.Phone, "password": req.Password}) {
		return
	}
	id, err := s.store.authenticate(req.Phone, req.Password)
	if err != nil {
		detail(w, http.StatusUnauthorized, "Incorrect phone number or password")
		return
	}
	_ = audit.LogEvent(r.Context(), "devbackend.login", map[string]any{"user_id": id})
	s.issue(w, id)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p, _, err := s.store.account(userID(r.Context()))
	if err != nil {
		detail(w, http.StatusNotFound, "User not found")
		return
	}
	raw(w, p)
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	var req api.InitAccountParams
	if !decode(w, r, &req) || !required(w, map[string]string{"password": req.Password, "name": req.Name, "role": req.Role}) {
		return
	}
	err := s.store.initAccount(userID(r.Context()), req)
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		invalid(w, []fieldError{{Loc: []string{"body", "role"}, Msg: "unknown role", Type: "value_error"}})
	case errors.Is(err, errConflict):
		detail(w, http.StatusBadRequest, "Account already initialized")
	case err != nil:
		detail(w, http.StatusInternalServerError, "Internal Server Error")
	default:
		raw(w, api.Detail{Detail: "account initialized"})
	}
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req api.ChangePasswordParams
	if !decode(w, r, &req) || !required(w, map[string]string{"old_password": req.OldPassword, "new_password": req.NewPassword}) {
		return
	}
	if err := s.store.changePassword(userID(r.Context()), req.OldPassword, req.NewPassword); err != nil {
		detail(w, http.StatusBadRequest, "Old password is incorrect")
		return
	}
	raw(w, api.Detail{Detail: "password changed"})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	p, _, _ := s.store.account(userID(r.Context()))
	var club int64
	for _, rec := range p.Roles {
		if rec.ClubID != nil {
			club = *rec.ClubID
			break
		}
	}
	raw(w, s.store.dashboard(club))
}

func (s *Server) handleAdminSignups(w http.ResponseWriter, r *http.Request) {
	status := api.SignupStatus(strings.ToUpper(r.URL.Query().Get("status")))
	items := s.store.listSignups(func(a api.SignupApplication) bool {
		return status == "" || a.Status == status
	})
	raw(w, api.Page[api.SignupApplication]{Items: items, Total: len(items)})
}

func (s *Server) handleAuditSignup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if !decode(w, r, &req) {
		return
	}
	status := api.SignupStatus(strings.ToUpper(req.Status))
	if status != api.SignupApproved && status != api.SignupRejected {
		invalid(w, []fieldError{{Loc: []string{"body", "status"}, Msg: "must be APPROVED or REJECTED", Type: "value_error"}})
		return
	}
	app, err := s.store.auditSignup(id, userID(r.Context()), status, req.Reason)
	switch {
	case errors.Is(err, errNotFound):
		detail(w, http.StatusNotFound, "Signup application not found")
	case errors.Is(err, errConflict):
		detail(w, http.StatusBadRequest, "Signup application already audited")
	case err != nil:
		detail(w, http.StatusInternalServerError, "Internal Server Error")
	default:
		_ = audit.LogEvent(r.Context(), "devbackend.signup.audit", map[string]any{"signup_id": id, "status": status})
		raw(w, api.AuditSignupResult{Detail: "audited", SignupID: app.ID, NewStatus: string(app.Status)})
	}
}

func (s *Server) handleMyInvitations(w http.ResponseWriter, r *http.Request) {
	raw(w, s.store.invitationsFor(userID(r.Context())))
}

func (s *Server) handleAnswerInvitation(status api.InvitationStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		err := s.store.answerInvitation(id, userID(r.Context()), status)
		switch {
		case errors.Is(err, errNotFound):
			detail(w, http.StatusNotFound, "Invitation not found")
		case errors.Is(err, errConflict):
			detail(w, http.StatusBadRequest, "Invitation already answered")
		case err != nil:
			detail(w, http.StatusInternalServerError, "Internal Server Error")
		default:
			raw(w, api.Detail{Detail: "invitation " + strings.ToLower(string(status))})
		}
	}
}

func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	items := s.store.searchUsers(strings.TrimSpace(r.URL.Query().Get("phone")))
	wrapped(w, api.Page[api.SearchedUser]{Items: items, Total: len(items)})
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	wrapped(w, s.store.tasksFor(userID(r.Context())))
}

func (s *Server) handleSubmitSignup(w http.ResponseWriter, r *http.Request) {
	var req api.SubmitSignupParams
	if !decode(w, r, &req) {
		return
	}
	if req.RecruitmentSessionID == 0 || len(req.PositionIDs) == 0 {
		wrappedFailure(w, http.StatusBadRequest, "recruitment session and at least one position are required")
		return
	}
	wrapped(w, s.store.submitSignup(userID(r.Context()), req))
}

func (s *Server) handleMySignups(w http.ResponseWriter, r *http.Request) {
	me := userID(r.Context())
	items := s.store.listSignups(func(a api.SignupApplication) bool { return a.UserID == me })
	wrapped(w, api.Page[api.SignupApplication]{Items: items, Total: len(items)})
}

// handleMyApplication reports "no application yet" as an envelope failure
// with HTTP 200, the way the student family does.
func (s *Server) handleMyApplication(w http.ResponseWriter, r *http.Request) {
	me := userID(r.Context())
	items := s.store.listSignups(func(a api.SignupApplication) bool { return a.UserID == me })
	if len(items) == 0 {
		wrappedFailure(w, http.StatusNotFound, "no application submitted")
		return
	}
	latest := items[0]
	out := api.StudentApplication{ID: latest.ID, Status: string(latest.Status), ApplyTime: latest.CreatedAt}
	if latest.SelfIntro != nil {
		out.Introduction = *latest.SelfIntro
	}
	wrapped(w, out)
}

func (s *Server) handleMyTickets(w http.ResponseWriter, r *http.Request) {
	wrapped(w, s.store.ticketsFor(userID(r.Context())))
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		invalid(w, []fieldError{{Loc: []string{"path", "id"}, Msg: "value is not a valid integer", Type: "type_error.integer"}})
		return 0, false
	}
	return id, true
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
