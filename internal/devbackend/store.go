package devbackend

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"clubhire.org/internal/api"
	"clubhire.org/internal/auth"
	"clubhire.org/internal/session"
)

var (
	errNotFound = errors.New("devbackend: not found")
	errConflict = errors.New("devbackend: conflict")
	errBadCode  = errors.New("devbackend: invalid verification code")
)

type user struct {
	ID          int64
	Phone       string
	Name        string
	Hash        string
	Status      int
	Initialized bool
	Roles       []session.RoleRecord
	SchoolCode  string
	SchoolName  string
}

func (u *user) profile() session.Profile {
	p := session.Profile{
		ID:            u.ID,
		Phone:         u.Phone,
		Status:        u.Status,
		IsInitialized: u.Initialized,
		Roles:         append([]session.RoleRecord(nil), u.Roles...),
	}
	if u.Name != "" {
		name := u.Name
		p.Name = &name
	}
	if u.SchoolCode != "" {
		code, school := u.SchoolCode, u.SchoolName
		p.SchoolCode, p.SchoolName = &code, &school
	}
	return p
}

func (u *user) codes() []string {
	out := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		out = append(out, r.Code)
	}
	return out
}

// SeedUser describes an account created at startup.
type SeedUser struct {
	Phone    string
	Password string
	Name     string
	Roles    []string
	ClubID   int64
}

// DefaultSeed is one account per role.
func DefaultSeed() []SeedUser {
	return []SeedUser{
		{Phone: "13800000001", Password: "admin123", Name: "Club Admin", Roles: []string{"CLUB_ADMIN"}, ClubID: 1},
		{Phone: "13800000002", Password: "interviewer123", Name: "Interviewer", Roles: []string{"INTERVIEWER"}, ClubID: 1},
		{Phone: "13800000003", Password: "student123", Name: "Student", Roles: []string{"STUDENT"}},
	}
}

var roleNames = map[string]struct {
	id   int64
	name string
}{
	"CLUB_ADMIN":  {1, "Club administrator"},
	"INTERVIEWER": {2, "Interviewer"},
	"STUDENT":     {3, "Student"},
}

// store is the backend's in-memory state. All methods are safe for
// concurrent use.
type store struct {
	mu sync.Mutex

	nextID      int64
	users       map[int64]*user
	byPhone     map[string]int64
	codes       map[string]string
	clubName    map[int64]string
	signups     []api.SignupApplication
	invitations []api.InterviewerInvitation
	tasks       map[int64][]api.InterviewTask
	tickets     map[int64][]api.Ticket
	now         func() time.Time
}

func newStore() *store {
	return &store{
		nextID:   100,
		users:    map[int64]*user{},
		byPhone:  map[string]int64{},
		codes:    map[string]string{},
		clubName: map[int64]string{1: "Robotics Club"},
		tasks:    map[int64][]api.InterviewTask{},
		tickets:  map[int64][]api.Ticket{},
		now:      time.Now,
	}
}

func (s *store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *store) stamp() string { return s.now().UTC().Format(time.RFC3339) }

func (s *store) seed(users []SeedUser) error {
	for _, su := range users {
		hash, err := auth.HashPassword(su.Password)
		if err != nil {
			return fmt.Errorf("seed %s: %w", su.Phone, err)
		}
		s.mu.Lock()
		u := &user{ID: s.id(), Phone: su.Phone, Name: su.Name, Hash: hash, Status: 1, Initialized: true}
		for _, code := range su.Roles {
			rec := session.RoleRecord{Code: code, Name: roleNames[code].name, ID: roleNames[code].id}
			if su.ClubID != 0 && code != "STUDENT" {
				club := su.ClubID
				rec.ClubID = &club
			}
			u.Roles = append(u.Roles, rec)
		}
		s.users[u.ID] = u
		s.byPhone[u.Phone] = u.ID
		if hasCode(u, "INTERVIEWER") {
			s.tasks[u.ID] = []api.InterviewTask{{
				ID: s.id(), InterviewID: 1, CandidateName: "Student", Position: "Engineer",
				StartTime: s.now().Add(24 * time.Hour).UTC().Format(time.RFC3339), Location: "Room 101", Status: "PENDING",
			}}
			s.invitations = append(s.invitations, api.InterviewerInvitation{
				ID: s.id(), ClubID: 1, ClubName: s.clubName[1], UserID: u.ID,
				Status: api.InvitationPending, InviteCode: fmt.Sprintf("INV%06d", u.ID), CreatedAt: s.stamp(),
			})
		}
		s.mu.Unlock()
	}
	return nil
}

func hasCode(u *user, code string) bool {
	for _, r := range u.Roles {
		if strings.EqualFold(r.Code, code) {
			return true
		}
	}
	return false
}

func (s *store) authenticate(phone, password string) (int64, error) {
	s.mu.Lock()
	id, ok := s.byPhone[phone]
	var hash string
	if ok {
		hash = s.users[id].Hash
	}
	s.mu.Unlock()
	if !ok {
		return 0, auth.ErrBadCredentials
	}
	if err := auth.VerifyPassword(hash, password); err != nil {
		return 0, auth.ErrBadCredentials
	}
	return id, nil
}

func (s *store) sendCode(phone string) string {
	code := fmt.Sprintf("%06d", rand.IntN(1000000))
	s.mu.Lock()
	s.codes[phone] = code
	s.mu.Unlock()
	return code
}

// register consumes a code and creates an uninitialized account without roles.
func (s *store) register(phone, code string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if want, ok := s.codes[phone]; !ok || want != code {
		return 0, errBadCode
	}
	delete(s.codes, phone)
	if _, ok := s.byPhone[phone]; ok {
		return 0, errConflict
	}
	u := &user{ID: s.id(), Phone: phone, Status: 1}
	s.users[u.ID] = u
	s.byPhone[phone] = u.ID
	return u.ID, nil
}

func (s *store) changePassword(id int64, oldPw, newPw string) error {
	s.mu.Lock()
	u, ok := s.users[id]
	var current string
	if ok {
		current = u.Hash
	}
	s.mu.Unlock()
	if !ok {
		return errNotFound
	}
	if err := auth.VerifyPassword(current, oldPw); err != nil {
		return err
	}
	hash, err := auth.HashPassword(newPw)
	if err != nil {
		return err
	}
	s.mu.Lock()
	u.Hash = hash
	s.mu.Unlock()
	return nil
}

func (s *store) submitSignup(userID int64, p api.SubmitSignupParams) api.SubmitSignupResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	app := api.SignupApplication{
		ID:                   s.id(),
		UserID:               userID,
		RecruitmentSessionID: p.RecruitmentSessionID,
		Status:               api.SignupPending,
		CreatedAt:            s.stamp(),
		UpdatedAt:            s.stamp(),
	}
	if p.SelfIntro != "" {
		intro := p.SelfIntro
		app.SelfIntro = &intro
	}
	for _, pos := range p.PositionIDs {
		app.Items = append(app.Items, api.SignupItem{ID: s.id(), SignupSessionID: p.RecruitmentSessionID, PositionID: pos})
	}
	if u := s.users[userID]; u != nil {
		app.UserName, app.UserPhone = u.Name, u.Phone
	}
	s.signups = append(s.signups, app)
	return api.SubmitSignupResult{SignupID: app.ID, Status: string(app.Status)}
}

func (s *store) listSignups(filter func(api.SignupApplication) bool) []api.SignupApplication {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []api.SignupApplication{}
	for _, a := range s.signups {
		if filter(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *store) auditSignup(id, auditor int64, status api.SignupStatus, reason string) (api.SignupApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.signups {
		a := &s.signups[i]
		if a.ID != id {
			continue
		}
		if a.Status != api.SignupPending {
			return *a, errConflict
		}
		now := s.stamp()
		a.Status, a.AuditUserID, a.AuditTime, a.UpdatedAt = status, &auditor, &now, now
		if reason != "" {
			a.AuditReason = &reason
		}
		return *a, nil
	}
	return api.SignupApplication{}, errNotFound
}

func (s *store) searchUsers(phone string) []api.SearchedUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []api.SearchedUser{}
	for _, u := range s.users {
		if phone == "" || strings.Contains(u.Phone, phone) {
			su := api.SearchedUser{ID: u.ID, Phone: u.Phone}
			if u.Name != "" {
				name := u.Name
				su.Name = &name
			}
			out = append(out, su)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *store) invitationsFor(userID int64) []api.InterviewerInvitation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []api.InterviewerInvitation{}
	for _, inv := range s.invitations {
		if inv.UserID == userID {
			out = append(out, inv)
		}
	}
	return out
}

func (s *store) answerInvitation(id, userID int64, status api.InvitationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.invitations {
		inv := &s.invitations[i]
		if inv.ID != id || inv.UserID != userID {
			continue
		}
		if inv.Status != api.InvitationPending {
			return errConflict
		}
		inv.Status = status
		return nil
	}
	return errNotFound
}

func (s *store) tasksFor(userID int64) []api.InterviewTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.InterviewTask{}, s.tasks[userID]...)
}

func (s *store) ticketsFor(userID int64) []api.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Ticket{}, s.tickets[userID]...)
}

func (s *store) dashboard(clubID int64) api.Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := api.Dashboard{ClubID: clubID, ClubName: s.clubName[clubID], ActiveSessions: 1}
	var decided, approved int
	for _, a := range s.signups {
		switch a.Status {
		case api.SignupPending:
			d.PendingSignups++
		case api.SignupApproved:
			approved++
			decided++
		case api.SignupRejected:
			decided++
		}
	}
	for _, ts := range s.tasks {
		d.UpcomingInterviews += len(ts)
	}
	for _, u := range s.users {
		if hasCode(u, "INTERVIEWER") {
			d.Interviewers++
		}
	}
	if decided > 0 {
		d.AcceptanceRate = float64(approved) / float64(decided)
	}
	return d
}

// account returns a snapshot of the user's profile and role codes.
func (s *store) account(id int64) (session.Profile, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return session.Profile{}, nil, errNotFound
	}
	return u.profile(), u.codes(), nil
}

// initAccount completes a registered account. Students get the STUDENT role,
// club admins additionally get a new club.
func (s *store) initAccount(id int64, p api.InitAccountParams) error {
	hash, err := auth.HashPassword(p.Password)
	if err != nil {
		return err
	}
	code := strings.ToUpper(strings.TrimSpace(p.Role))
	if code == "ADMIN" {
		code = "CLUB_ADMIN"
	}
	meta, ok := roleNames[code]
	if !ok {
		return fmt.Errorf("%w: role %q", auth.ErrInvalidInput, p.Role)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return errNotFound
	}
	if u.Initialized {
		return errConflict
	}
	rec := session.RoleRecord{ID: meta.id, Code: code, Name: meta.name}
	if code == "CLUB_ADMIN" {
		club := s.id()
		s.clubName[club] = p.ClubName
		rec.ClubID = &club
	}
	u.Hash, u.Name, u.SchoolCode, u.Initialized = hash, p.Name, p.SchoolCode, true
	u.Roles = append(u.Roles, rec)
	return nil
}
