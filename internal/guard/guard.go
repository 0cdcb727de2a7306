// Package guard decides, for every attempted page navigation, whether the
// page may be shown or where the user must be sent instead.
package guard

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"clubhire.org/internal/obs"
	"clubhire.org/internal/roles"
	"clubhire.org/internal/session"
)

// AppName suffixes every page title.
const AppName = "Club Interview System"

// State is a step of the navigation state machine.
type State string

const (
	PublicPage                  State = "public_page"
	RequiresAuthUnauthenticated State = "requires_auth_unauthenticated"
	RequiresAuthNeedsProfile    State = "requires_auth_needs_profile"
	RequiresAuthRoleCheck       State = "requires_auth_role_check"
	Allowed                     State = "allowed"
	Redirected                  State = "redirected"
)

// Default landing pages.
const (
	LoginPath       = session.LoginPath
	InitPath        = "/init"
	AdminHome       = "/admin/dashboard"
	InterviewerHome = "/interviewer/tasks"
	StudentHome     = "/student/apply"
)

// DefaultPublicPaths are reachable without a token.
var DefaultPublicPaths = []string{LoginPath, "/register", "/forget-password"}

// DefaultHomes maps each role to its landing page.
func DefaultHomes() map[roles.Role]string {
	return map[roles.Role]string{
		roles.Admin:       AdminHome,
		roles.Interviewer: InterviewerHome,
		roles.Student:     StudentHome,
	}
}

// ProfileFetcher loads the current-user profile with the session's token.
type ProfileFetcher interface {
	Me(ctx context.Context) (session.Profile, error)
}

// Decision is the outcome of one navigation attempt.
type Decision struct {
	Target   string
	State    State
	Trail    []State
	Redirect string
	Match    *Match
	Title    string
}

// Allowed reports whether the target page may be shown.
func (d Decision) Allowed() bool { return d.State == Allowed }

// Guard is bound to one session. Navigations on the same guard are not
// serialized: a superseded navigation still completes its profile fetch and
// the last write to the session wins.
type Guard struct {
	sess        *session.Session
	fetcher     ProfileFetcher
	table       *Table
	publicPaths map[string]struct{}
	homes       map[roles.Role]string
	defaultHome string
}

// Option configures a Guard.
type Option func(*Guard)

// WithRoutes replaces the default route tree.
func WithRoutes(routes []Route) Option {
	return func(g *Guard) { g.table = NewTable(routes) }
}

// WithPublicPaths replaces the default public path list.
func WithPublicPaths(paths ...string) Option {
	return func(g *Guard) {
		g.publicPaths = make(map[string]struct{}, len(paths))
		for _, p := range paths {
			g.publicPaths[p] = struct{}{}
		}
	}
}

// WithHomes replaces the role to landing page map.
func WithHomes(homes map[roles.Role]string) Option {
	return func(g *Guard) { g.homes = homes }
}

// New builds a guard for sess. fetcher is used when a token is present but no
// profile is cached.
func New(sess *session.Session, fetcher ProfileFetcher, opts ...Option) *Guard {
	g := &Guard{
		sess:        sess,
		fetcher:     fetcher,
		table:       NewTable(DefaultRoutes()),
		homes:       DefaultHomes(),
		defaultHome: StudentHome,
	}
	WithPublicPaths(DefaultPublicPaths...)(g)
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Home returns the landing page for the session's primary role.
func (g *Guard) Home() string {
	if r, ok := g.sess.PrimaryRole(); ok {
		if h, ok := g.homes[r]; ok {
			return h
		}
	}
	return g.defaultHome
}

// Navigate runs the guard for target, a path with optional query string.
func (g *Guard) Navigate(ctx context.Context, target string) Decision {
	d := g.navigate(ctx, target)
	obs.ObserveGuard(string(d.State))
	obs.Logger().WithFields(map[string]any{
		"target":   d.Target,
		"state":    d.State,
		"redirect": d.Redirect,
	}).Debug("navigation")
	return d
}

func (g *Guard) navigate(ctx context.Context, target string) Decision {
	if target == "" {
		target = "/"
	}
	path := StripQuery(target)
	d := Decision{Target: target}
	if m, ok := g.table.Match(path); ok {
		d.Match = &m
	}
	d.Title = pageTitle(d.Match)

	if _, public := g.publicPaths[path]; public {
		d.Trail = append(d.Trail, PublicPage)
		if path == LoginPath && g.sess.Authenticated() {
			if !g.sess.HasProfile() {
				if err := g.loadProfile(ctx); err != nil {
					return g.allow(d)
				}
			}
			return g.redirect(d, g.Home())
		}
		return g.allow(d)
	}

	if !g.sess.Authenticated() {
		d.Trail = append(d.Trail, RequiresAuthUnauthenticated)
		return g.redirect(d, LoginRedirect(target))
	}

	if !g.sess.HasProfile() {
		d.Trail = append(d.Trail, RequiresAuthNeedsProfile)
		if err := g.loadProfile(ctx); err != nil {
			return g.redirect(d, LoginPath)
		}
	}

	if path == "/" {
		return g.redirect(d, g.Home())
	}

	if d.Match != nil && d.Match.AllowedRoles != nil {
		d.Trail = append(d.Trail, RequiresAuthRoleCheck)
		if !g.sess.HasAnyRole(d.Match.AllowedRoles...) {
			home := g.Home()
			if StripQuery(home) == path {
				home = InitPath
			}
			return g.redirect(d, home)
		}
	}
	return g.allow(d)
}

// loadProfile fetches and caches the profile; on failure the session is cleared.
func (g *Guard) loadProfile(ctx context.Context) error {
	if g.fetcher == nil {
		_ = g.sess.Clear(ctx)
		return errNoFetcher
	}
	p, err := g.fetcher.Me(ctx)
	if err != nil {
		if cerr := g.sess.Clear(ctx); cerr != nil {
			obs.Logger().WithError(cerr).Warn("clear session after profile failure")
		}
		return err
	}
	g.sess.SetProfile(p)
	return nil
}

func (g *Guard) allow(d Decision) Decision {
	d.State = Allowed
	d.Trail = append(d.Trail, Allowed)
	return d
}

func (g *Guard) redirect(d Decision, to string) Decision {
	d.State = Redirected
	d.Redirect = to
	d.Trail = append(d.Trail, Redirected)
	return d
}

var errNoFetcher = errors.New("guard: no profile fetcher configured")

// LoginRedirect builds the login URL preserving target as the return path.
func LoginRedirect(target string) string {
	return LoginPath + "?redirect=" + strings.ReplaceAll(url.QueryEscape(target), "%2F", "/")
}

// SafeRedirect validates a preserved return path before it is honoured.
// Only local absolute paths are accepted, and never the login page itself.
func SafeRedirect(target string) (string, bool) {
	target = strings.TrimSpace(target)
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return "", false
	}
	if strings.ContainsAny(target, "\\\r\n") {
		return "", false
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}
	if StripQuery(target) == LoginPath {
		return "", false
	}
	return target, true
}

func pageTitle(m *Match) string {
	if m == nil || m.Route.Title == "" {
		return AppName + " - " + AppName
	}
	return m.Route.Title + " - " + AppName
}
