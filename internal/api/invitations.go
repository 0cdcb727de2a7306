package api

import (
	"context"
	"encoding/json"
	"net/url"

	"clubhire.org/internal/client"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
	InvitationRejected InvitationStatus = "REJECTED"
	InvitationExpired  InvitationStatus = "EXPIRED"
)

type SearchedUser struct {
	ID    int64   `json:"id"`
	Name  *string `json:"name"`
	Phone string  `json:"phone"`
}

type InterviewerInvitation struct {
	ID          int64            `json:"id"`
	ClubID      int64            `json:"club_id"`
	ClubName    string           `json:"club_name"`
	ClubLogoURL string           `json:"club_logo_url,omitempty"`
	UserID      int64            `json:"user_id"`
	InviterName string           `json:"inviter_name,omitempty"`
	Status      InvitationStatus `json:"status"`
	InviteCode  string           `json:"invite_code"`
	CreatedAt   string           `json:"created_at"`
}

type ClubInterviewer struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email,omitempty"`
	JoinedAt string `json:"joined_at"`
}

// ClubInterviewers returns the interviewers bound to a club.
func ClubInterviewers(ctx context.Context, c *client.Client, clubID int64) ([]ClubInterviewer, error) {
	page, err := client.Get[Page[ClubInterviewer]](ctx, c, pathf("/api/admin/clubs/%d/interviewers", clubID), nil, client.Raw())
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// SearchUsers finds users by phone. The endpoint has answered with
// {items,total}, {data} and bare arrays over time; all three are accepted.
func SearchUsers(ctx context.Context, c *client.Client, phone string) ([]SearchedUser, error) {
	raw, err := client.Get[json.RawMessage](ctx, c, "/api/admin/users/search", url.Values{"phone": {phone}}, client.Wrapped())
	if err != nil {
		return nil, err
	}
	var list []SearchedUser
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Items []SearchedUser `json:"items"`
		Data  []SearchedUser `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, &client.Error{Kind: client.KindEnvelope, Message: client.MsgRequestFailed, Err: err}
	}
	if wrapped.Items != nil {
		return wrapped.Items, nil
	}
	return wrapped.Data, nil
}

func InviteInterviewer(ctx context.Context, c *client.Client, clubID, userID int64) (InterviewerInvitation, error) {
	return client.Post[InterviewerInvitation](ctx, c, pathf("/api/admin/clubs/%d/invite-interviewer", clubID), map[string]int64{"user_id": userID}, client.Raw())
}

func MyInvitations(ctx context.Context, c *client.Client) ([]InterviewerInvitation, error) {
	return client.Get[[]InterviewerInvitation](ctx, c, "/api/interviewer/invitations", nil, client.Raw())
}

func AcceptInvitation(ctx context.Context, c *client.Client, id int64) (Detail, error) {
	return client.Post[Detail](ctx, c, pathf("/api/interviewer/invitations/%d/accept", id), nil, client.Raw())
}

func RejectInvitation(ctx context.Context, c *client.Client, id int64, reason string) (Detail, error) {
	body := map[string]string{}
	if reason != "" {
		body["reason"] = reason
	}
	return client.Post[Detail](ctx, c, pathf("/api/interviewer/invitations/%d/reject", id), body, client.Raw())
}
