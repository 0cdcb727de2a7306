package session

import (
	"bytes"
	"encoding/json"

	"clubhire.org/internal/roles"
)

// RoleRecord is one role assignment as returned by the backend's /auth/me.
type RoleRecord struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	ClubID *int64 `json:"club_id"`
}

// Profile is the current-user profile. It is cached in memory only and
// refetched for every session lifetime.
type Profile struct {
	ID            int64        `json:"id"`
	Phone         string       `json:"phone"`
	Name          *string      `json:"name"`
	Status        int          `json:"status"`
	IsInitialized bool         `json:"is_initialized"`
	Roles         []RoleRecord `json:"roles"`
	SchoolCode    *string      `json:"school_code,omitempty"`
	SchoolName    *string      `json:"school_name,omitempty"`
}

// UnmarshalJSON accepts a role record object or a bare role code string.
func (r *RoleRecord) UnmarshalJSON(b []byte) error {
	var code string
	if err := json.Unmarshal(b, &code); err == nil {
		*r = RoleRecord{Code: code}
		return nil
	}
	type plain RoleRecord
	return json.Unmarshal(b, (*plain)(r))
}

// UnmarshalJSON accepts roles as a list or as a single record or code.
func (p *Profile) UnmarshalJSON(b []byte) error {
	type plain Profile
	aux := struct {
		*plain
		Roles json.RawMessage `json:"roles"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	raw := bytes.TrimSpace(aux.Roles)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		p.Roles = nil
	case raw[0] == '[':
		p.Roles = nil
		return json.Unmarshal(raw, &p.Roles)
	default:
		var one RoleRecord
		if err := json.Unmarshal(raw, &one); err != nil {
			return err
		}
		p.Roles = []RoleRecord{one}
	}
	return nil
}

// RoleSet returns the canonical roles held by the profile.
func (p *Profile) RoleSet() roles.Set {
	if p == nil {
		return roles.Set{}
	}
	codes := make([]string, 0, len(p.Roles))
	for _, r := range p.Roles {
		codes = append(codes, r.Code)
	}
	return roles.FromCodes(codes...)
}

// DisplayName returns the name when set, otherwise the phone number.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.Name != nil && *p.Name != "" {
		return *p.Name
	}
	return p.Phone
}

// LoginResult is the backend's reply to a password login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
