package session

import (
	"encoding/json"
	"testing"

	"clubhire.org/internal/roles"
)

func TestProfileRoleForms(t *testing.T) {
	cases := []struct {
		name string
		body string
		want []string
	}{
		{name: "records", body: `{"id":1,"roles":[{"id":3,"code":"CLUB_ADMIN","club_id":7}]}`, want: []string{"CLUB_ADMIN"}},
		{name: "codes", body: `{"id":1,"roles":["interviewer","STUDENT"]}`, want: []string{"interviewer", "STUDENT"}},
		{name: "single code", body: `{"id":1,"roles":"student"}`, want: []string{"student"}},
		{name: "single record", body: `{"id":1,"roles":{"code":"INTERVIEWER"}}`, want: []string{"INTERVIEWER"}},
		{name: "null", body: `{"id":1,"roles":null}`},
		{name: "absent", body: `{"id":1,"phone":"13800000001"}`},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var p Profile
			if err := json.Unmarshal([]byte(tc.body), &p); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if p.ID != 1 {
				t.Fatalf("other fields lost: %+v", p)
			}
			if len(p.Roles) != len(tc.want) {
				t.Fatalf("roles = %+v, want %v", p.Roles, tc.want)
			}
			for i, code := range tc.want {
				if p.Roles[i].Code != code {
					t.Fatalf("roles[%d] = %q, want %q", i, p.Roles[i].Code, code)
				}
			}
		})
	}
}

func TestProfileRecordKeepsClub(t *testing.T) {
	var p Profile
	if err := json.Unmarshal([]byte(`{"id":2,"phone":"x","roles":[{"code":"CLUB_ADMIN","club_id":7}]}`), &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if p.Phone != "x" || p.Roles[0].ClubID == nil || *p.Roles[0].ClubID != 7 {
		t.Fatalf("unexpected profile %+v", p)
	}
	if !p.RoleSet().Has(roles.Admin) {
		t.Fatalf("expected admin role")
	}
}

func TestProfileRejectsBadRoles(t *testing.T) {
	var p Profile
	if err := json.Unmarshal([]byte(`{"id":1,"roles":42}`), &p); err == nil {
		t.Fatalf("expected error for numeric roles")
	}
}
