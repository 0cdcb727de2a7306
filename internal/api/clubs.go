package api

import (
	"context"

	"clubhire.org/internal/client"
)

type Club struct {
	ID          int64   `json:"id"`
	SchoolName  string  `json:"school_name"`
	Name        string  `json:"name"`
	LogoURL     string  `json:"logo_url"`
	Category    string  `json:"category"`
	Description *string `json:"description"`
	CertFileURL *string `json:"cert_file_url"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
}

type ClubProfileCheck struct {
	ClubID        int64    `json:"club_id"`
	IsComplete    bool     `json:"is_complete"`
	MissingFields []string `json:"missing_fields"`
}

type ClubCheck struct {
	Exists  bool   `json:"exists"`
	ClubID  *int64 `json:"club_id"`
	Message string `json:"message"`
}

type ClubInit struct {
	Detail string `json:"detail"`
	ClubID int64  `json:"club_id"`
	IsNew  bool   `json:"is_new"`
}

type UpdateClubParams struct {
	Name        *string `json:"name,omitempty"`
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
}

func GetClub(ctx context.Context, c *client.Client, clubID int64) (Club, error) {
	return client.Get[Club](ctx, c, pathf("/api/clubs/%d", clubID), nil, client.Raw())
}

func CheckClub(ctx context.Context, c *client.Client, clubName, schoolCode string) (ClubCheck, error) {
	return client.Post[ClubCheck](ctx, c, "/api/clubs/check", map[string]string{"club_name": clubName, "school_code": schoolCode}, client.Raw())
}

// InitClub lets a club admin create (or claim) the club they manage.
func InitClub(ctx context.Context, c *client.Client, clubName, schoolCode string) (ClubInit, error) {
	return client.Post[ClubInit](ctx, c, "/api/clubs/init", map[string]string{"club_name": clubName, "school_code": schoolCode}, client.Raw())
}

func CheckClubProfile(ctx context.Context, c *client.Client, clubID int64) (ClubProfileCheck, error) {
	return client.Get[ClubProfileCheck](ctx, c, pathf("/api/clubs/%d/profile-check", clubID), nil, client.Raw())
}

func BindUserToClub(ctx context.Context, c *client.Client, clubID, userID, roleID int64) (Detail, error) {
	return client.Post[Detail](ctx, c, pathf("/api/clubs/%d/bind-user", clubID), map[string]int64{"user_id": userID, "role_id": roleID}, client.Raw())
}

func UpdateClub(ctx context.Context, c *client.Client, clubID int64, p UpdateClubParams) (Club, error) {
	return client.Put[Club](ctx, c, pathf("/api/clubs/%d", clubID), p, client.Raw())
}
