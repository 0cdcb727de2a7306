package guard

import (
	"strings"

	"clubhire.org/internal/roles"
)

// Route is one page of the front end. A nil AllowedRoles means any
// authenticated user may open it; an empty non-nil list admits nobody.
// Child routes inherit the parent's list unless they declare their own.
type Route struct {
	Path         string
	Name         string
	Title        string
	AllowedRoles []roles.Role
	Children     []Route
}

// compiled is a route flattened to its full path.
type compiled struct {
	route    Route
	full     string
	segments []string
	allowed  []roles.Role
}

// Table matches navigation targets against a route tree.
type Table struct {
	entries []compiled
}

// NewTable flattens routes into a lookup table.
func NewTable(routes []Route) *Table {
	t := &Table{}
	for _, r := range routes {
		t.add("", nil, r)
	}
	return t
}

func (t *Table) add(prefix string, inherited []roles.Role, r Route) {
	full := joinPath(prefix, r.Path)
	allowed := inherited
	if r.AllowedRoles != nil {
		allowed = r.AllowedRoles
	}
	t.entries = append(t.entries, compiled{
		route:    r,
		full:     full,
		segments: splitPath(full),
		allowed:  allowed,
	})
	for _, child := range r.Children {
		t.add(full, allowed, child)
	}
}

// Match is the result of a successful table lookup.
type Match struct {
	Route        Route
	FullPath     string
	AllowedRoles []roles.Role
	Params       map[string]string
}

// Match finds the route for path. Static segments win over :params when
// both match; the first declared route wins among equals.
func (t *Table) Match(path string) (Match, bool) {
	segs := splitPath(StripQuery(path))
	best := -1
	bestScore := -1
	var bestParams map[string]string
	for i, e := range t.entries {
		params, score, ok := matchSegments(e.segments, segs)
		if !ok || score <= bestScore {
			continue
		}
		best, bestScore, bestParams = i, score, params
	}
	if best < 0 {
		return Match{}, false
	}
	e := t.entries[best]
	return Match{Route: e.route, FullPath: e.full, AllowedRoles: e.allowed, Params: bestParams}, true
}

func matchSegments(pattern, segs []string) (map[string]string, int, bool) {
	if len(pattern) != len(segs) {
		return nil, 0, false
	}
	var params map[string]string
	score := 0
	for i, p := range pattern {
		if strings.HasPrefix(p, ":") {
			if segs[i] == "" {
				return nil, 0, false
			}
			if params == nil {
				params = map[string]string{}
			}
			params[p[1:]] = segs[i]
			continue
		}
		if p != segs[i] {
			return nil, 0, false
		}
		score++
	}
	return params, score, true
}

// StripQuery drops the query string and fragment of a navigation target.
func StripQuery(target string) string {
	if i := strings.IndexAny(target, "?#"); i >= 0 {
		target = target[:i]
	}
	if target == "" {
		return "/"
	}
	return target
}

func joinPath(prefix, p string) string {
	switch {
	case strings.HasPrefix(p, "/"):
		return p
	case prefix == "" || prefix == "/":
		return "/" + p
	default:
		return strings.TrimRight(prefix, "/") + "/" + p
	}
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// DefaultRoutes mirrors the page tree of the recruitment front end.
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/login", Name: "Login", Title: "Login"},
		{Path: "/register", Name: "Register", Title: "Register"},
		{Path: "/forget-password", Name: "ForgetPassword", Title: "Forgot password"},
		{Path: "/init", Name: "Init", Title: "Complete your profile"},
		{
			Path:         "/admin",
			AllowedRoles: []roles.Role{roles.Admin},
			Children: []Route{
				{Path: "dashboard", Name: "Dashboard", Title: "Dashboard"},
				{Path: "applications", Name: "Applications", Title: "Applications"},
				{Path: "interviews", Name: "Interviews", Title: "Interviews"},
				{Path: "statistics", Name: "Statistics", Title: "Statistics"},
				{Path: "tickets", Name: "AdminTickets", Title: "Tickets"},
			},
		},
		{
			Path:         "/interviewer",
			AllowedRoles: []roles.Role{roles.Interviewer},
			Children: []Route{
				{Path: "tasks", Name: "InterviewerTasks", Title: "Interview tasks"},
				{Path: "score/:id", Name: "Score", Title: "Score"},
			},
		},
		{
			Path:         "/student",
			AllowedRoles: []roles.Role{roles.Student},
			Children: []Route{
				{Path: "apply", Name: "Apply", Title: "Club signup"},
				{Path: "notifications", Name: "Notifications", Title: "Notifications"},
				{Path: "tickets", Name: "StudentTickets", Title: "My tickets"},
			},
		},
	}
}
