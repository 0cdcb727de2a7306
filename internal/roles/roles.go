// Package roles defines the canonical role enum used by the client core and the
// single translation table from backend role codes to it.
package roles

import "strings"

// Role is the canonical internal role.
type Role string

const (
	Admin       Role = "admin"
	Interviewer Role = "interviewer"
	Student     Role = "student"
)

// Priority lists roles from highest to lowest precedence.
var Priority = []Role{Admin, Interviewer, Student}

// codes maps every observed backend role code, lower-cased, to its canonical role.
var codes = map[string]Role{
	"club_admin":  Admin,
	"admin":       Admin,
	"interviewer": Interviewer,
	"student":     Student,
}

// Parse translates a backend role code (any casing) into a canonical role.
func Parse(code string) (Role, bool) {
	r, ok := codes[strings.ToLower(strings.TrimSpace(code))]
	return r, ok
}

// MustParse is Parse for static tables; it panics on unknown codes.
func MustParse(code string) Role {
	r, ok := Parse(code)
	if !ok {
		panic("roles: unknown role code " + code)
	}
	return r
}

// String implements fmt.Stringer.
func (r Role) String() string { return string(r) }

// Valid reports whether r is one of the canonical roles.
func (r Role) Valid() bool {
	switch r {
	case Admin, Interviewer, Student:
		return true
	}
	return false
}

// Set is a normalized set of canonical roles.
type Set map[Role]struct{}

// FromCodes builds a set from backend role codes. Unrecognized codes are dropped.
func FromCodes(codes ...string) Set {
	s := make(Set, len(codes))
	for _, c := range codes {
		if r, ok := Parse(c); ok {
			s[r] = struct{}{}
		}
	}
	return s
}

// Has reports membership of r.
func (s Set) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// HasAny reports whether any of rs is in the set.
func (s Set) HasAny(rs ...Role) bool {
	for _, r := range rs {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// Primary returns the highest-priority role present, or false when the set
// holds no recognized role.
func (s Set) Primary() (Role, bool) {
	for _, r := range Priority {
		if s.Has(r) {
			return r, true
		}
	}
	return "", false
}

// Slice returns the members in priority order.
func (s Set) Slice() []Role {
	out := make([]Role, 0, len(s))
	for _, r := range Priority {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}
