package api

import (
	"context"
	"net/url"

	"clubhire.org/internal/client"
)

// SignupStatus is the review state of a signup application.
type SignupStatus string

const (
	SignupPending  SignupStatus = "PENDING"
	SignupApproved SignupStatus = "APPROVED"
	SignupRejected SignupStatus = "REJECTED"
)

type SignupItem struct {
	ID              int64  `json:"id"`
	SignupSessionID int64  `json:"signup_session_id"`
	DepartmentID    *int64 `json:"department_id"`
	PositionID      int64  `json:"position_id"`
}

type SignupApplication struct {
	ID                   int64        `json:"id"`
	UserID               int64        `json:"user_id"`
	RecruitmentSessionID int64        `json:"recruitment_session_id"`
	SelfIntro            *string      `json:"self_intro"`
	Status               SignupStatus `json:"status"`
	AuditUserID          *int64       `json:"audit_user_id"`
	AuditTime            *string      `json:"audit_time"`
	AuditReason          *string      `json:"audit_reason"`
	CreatedAt            string       `json:"created_at"`
	UpdatedAt            string       `json:"updated_at"`
	Items                []SignupItem `json:"items"`
	UserName             string       `json:"user_name,omitempty"`
	UserPhone            string       `json:"user_phone,omitempty"`
	UserEmail            string       `json:"user_email,omitempty"`
	SessionName          string       `json:"session_name,omitempty"`
}

type SubmitSignupParams struct {
	RecruitmentSessionID int64   `json:"recruitment_session_id"`
	PositionIDs          []int64 `json:"position_ids"`
	SelfIntro            string  `json:"self_intro,omitempty"`
}

type SubmitSignupResult struct {
	SignupID int64  `json:"signup_id"`
	Status   string `json:"status"`
}

type SignupQuery struct {
	RecruitmentSessionID int64
	Status               SignupStatus
	PageQuery
}

func (q SignupQuery) values() url.Values {
	v := url.Values{}
	setInt(v, "recruitment_session_id", q.RecruitmentSessionID)
	setString(v, "status", string(q.Status))
	q.apply(v, "page_size")
	return v
}

type AuditSignupResult struct {
	Detail    string `json:"detail"`
	SignupID  int64  `json:"signup_id"`
	NewStatus string `json:"new_status"`
}

// SubmitSignup files a student's application for one or more positions.
func SubmitSignup(ctx context.Context, c *client.Client, p SubmitSignupParams) (SubmitSignupResult, error) {
	return client.Post[SubmitSignupResult](ctx, c, "/api/student/signup/applications", p, client.Wrapped())
}

func MySignups(ctx context.Context, c *client.Client, q SignupQuery) (Page[SignupApplication], error) {
	return client.Get[Page[SignupApplication]](ctx, c, "/api/student/signup/applications", q.values(), client.Wrapped())
}

// SignupApplications lists applications of a session for review by a club admin.
func SignupApplications(ctx context.Context, c *client.Client, q SignupQuery) (Page[SignupApplication], error) {
	return client.Get[Page[SignupApplication]](ctx, c, "/api/admin/signup/applications", q.values(), client.Raw())
}

func SignupApplicationDetail(ctx context.Context, c *client.Client, id int64) (SignupApplication, error) {
	return client.Get[SignupApplication](ctx, c, pathf("/api/admin/signup/applications/%d", id), nil, client.Raw())
}

// AuditSignup approves or rejects an application. reason may be empty.
func AuditSignup(ctx context.Context, c *client.Client, id int64, status SignupStatus, reason string) (AuditSignupResult, error) {
	body := map[string]string{"status": string(status)}
	if reason != "" {
		body["reason"] = reason
	}
	return client.Post[AuditSignupResult](ctx, c, pathf("/api/admin/signup/applications/%d/audit", id), body, client.Raw())
}
