package api

import (
	"context"

	"clubhire.org/internal/client"
	"clubhire.org/internal/session"
)

// CodeScene selects what a verification code is for.
type CodeScene string

const (
	SceneRegister CodeScene = "REGISTER"
	SceneLogin    CodeScene = "LOGIN"
)

type SendCodeResult struct {
	Message string  `json:"message"`
	DevCode *string `json:"dev_code"`
}

type InitAccountParams struct {
	Password   string `json:"password"`
	Name       string `json:"name"`
	IDCardNo   string `json:"id_card_no"`
	SchoolCode string `json:"school_code"`
	Major      string `json:"major"`
	StudentNo  string `json:"student_no"`
	Role       string `json:"role"`
	ClubName   string `json:"club_name,omitempty"`
	Email      string `json:"email,omitempty"`
	AvatarURL  string `json:"avatar_url,omitempty"`
}

type AssignRoleParams struct {
	UserID int64  `json:"user_id"`
	RoleID int64  `json:"role_id"`
	ClubID *int64 `json:"club_id,omitempty"`
}

type AssignRoleResult struct {
	Detail   string `json:"detail"`
	UserRole struct {
		ID     int64  `json:"id"`
		UserID int64  `json:"user_id"`
		RoleID int64  `json:"role_id"`
		ClubID *int64 `json:"club_id"`
	} `json:"user_role"`
}

type ChangePasswordParams struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func SendCode(ctx context.Context, c *client.Client, phone string, scene CodeScene) (SendCodeResult, error) {
	return client.Post[SendCodeResult](ctx, c, "/api/auth/send-code", map[string]any{"phone": phone, "scene": scene}, client.Raw())
}

// Register creates an account from a verified phone code and returns its token.
func Register(ctx context.Context, c *client.Client, phone, code string) (session.LoginResult, error) {
	return client.Post[session.LoginResult](ctx, c, "/api/auth/register", map[string]string{"phone": phone, "code": code}, client.Raw())
}

func Login(ctx context.Context, c *client.Client, phone, password string) (session.LoginResult, error) {
	return client.Post[session.LoginResult](ctx, c, "/api/auth/login", map[string]string{"phone": phone, "password": password}, client.Raw())
}

// Me fetches the current-user profile.
func Me(ctx context.Context, c *client.Client) (session.Profile, error) {
	return client.Get[session.Profile](ctx, c, "/api/auth/me", nil, client.Raw())
}

func InitAccount(ctx context.Context, c *client.Client, p InitAccountParams) (Detail, error) {
	return client.Post[Detail](ctx, c, "/api/auth/init", p, client.Raw())
}

func AssignRole(ctx context.Context, c *client.Client, p AssignRoleParams) (AssignRoleResult, error) {
	return client.Post[AssignRoleResult](ctx, c, "/api/auth/assign-role", p, client.Raw())
}

func ChangePassword(ctx context.Context, c *client.Client, p ChangePasswordParams) (Detail, error) {
	return client.Post[Detail](ctx, c, "/api/auth/change-password", p, client.Raw())
}

// Authenticator adapts the auth endpoints to session.Authenticator.
type Authenticator struct {
	Client *client.Client
}

var _ session.Authenticator = Authenticator{}

func (a Authenticator) Login(ctx context.Context, phone, password string) (session.LoginResult, error) {
	return Login(ctx, a.Client, phone, password)
}

func (a Authenticator) Me(ctx context.Context) (session.Profile, error) {
	return Me(ctx, a.Client)
}
