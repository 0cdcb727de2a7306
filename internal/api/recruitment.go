package api

import (
	"context"
	"net/url"

	"clubhire.org/internal/client"
)

// SessionStatus is the lifecycle state of a recruitment session.
type SessionStatus string

const (
	SessionDraft     SessionStatus = "DRAFT"
	SessionPublished SessionStatus = "PUBLISHED"
	SessionClosed    SessionStatus = "CLOSED"
)

type SessionPosition struct {
	ID                  int64   `json:"id"`
	SessionID           int64   `json:"session_id"`
	PositionID          int64   `json:"position_id"`
	PositionName        string  `json:"position_name"`
	PositionDescription *string `json:"position_description"`
	PositionRequirement *string `json:"position_requirement"`
	RecruitQuota        int     `json:"recruit_quota"`
}

type RecruitmentSession struct {
	ID            int64             `json:"id"`
	ClubID        int64             `json:"club_id"`
	Name          string            `json:"name"`
	Description   *string           `json:"description"`
	StartTime     string            `json:"start_time"`
	EndTime       string            `json:"end_time"`
	MaxCandidates int               `json:"max_candidates"`
	Status        SessionStatus     `json:"status"`
	CreatedBy     int64             `json:"created_by"`
	CreatedAt     string            `json:"created_at"`
	UpdatedAt     string            `json:"updated_at"`
	Positions     []SessionPosition `json:"positions,omitempty"`
}

type CreateSessionParams struct {
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	MaxCandidates int    `json:"max_candidates,omitempty"`
}

type UpdateSessionParams struct {
	Name          *string        `json:"name,omitempty"`
	Description   *string        `json:"description,omitempty"`
	StartTime     *string        `json:"start_time,omitempty"`
	EndTime       *string        `json:"end_time,omitempty"`
	MaxCandidates *int           `json:"max_candidates,omitempty"`
	Status        *SessionStatus `json:"status,omitempty"`
}

const sessionsPath = "/api/recruitment/sessions"

// CreateRecruitmentSession passes club_id as a query parameter, as the backend expects.
func CreateRecruitmentSession(ctx context.Context, c *client.Client, clubID int64, p CreateSessionParams) (RecruitmentSession, error) {
	q := url.Values{}
	setInt(q, "club_id", clubID)
	return client.Post[RecruitmentSession](ctx, c, sessionsPath+"?"+q.Encode(), p, client.Raw())
}

func RecruitmentSessions(ctx context.Context, c *client.Client, clubID int64, status SessionStatus) ([]RecruitmentSession, error) {
	q := url.Values{}
	setInt(q, "club_id", clubID)
	setString(q, "status", string(status))
	return client.Get[[]RecruitmentSession](ctx, c, sessionsPath, q, client.Raw())
}

func GetRecruitmentSession(ctx context.Context, c *client.Client, id int64) (RecruitmentSession, error) {
	return client.Get[RecruitmentSession](ctx, c, pathf("%s/%d", sessionsPath, id), nil, client.Raw())
}

func UpdateRecruitmentSession(ctx context.Context, c *client.Client, id int64, p UpdateSessionParams) (RecruitmentSession, error) {
	return client.Put[RecruitmentSession](ctx, c, pathf("%s/%d", sessionsPath, id), p, client.Raw())
}

func DeleteRecruitmentSession(ctx context.Context, c *client.Client, id int64) error {
	_, err := client.Delete[Detail](ctx, c, pathf("%s/%d", sessionsPath, id), nil, client.Raw())
	return err
}

func AddSessionPosition(ctx context.Context, c *client.Client, sessionID, positionID int64, quota int) (SessionPosition, error) {
	body := map[string]any{"position_id": positionID, "recruit_quota": quota}
	return client.Post[SessionPosition](ctx, c, pathf("%s/%d/positions", sessionsPath, sessionID), body, client.Raw())
}

func UpdateSessionPosition(ctx context.Context, c *client.Client, sessionID, positionID int64, quota int) (SessionPosition, error) {
	return client.Put[SessionPosition](ctx, c, pathf("%s/%d/positions/%d", sessionsPath, sessionID, positionID), map[string]int{"recruit_quota": quota}, client.Raw())
}

func RemoveSessionPosition(ctx context.Context, c *client.Client, sessionID, positionID int64) error {
	_, err := client.Delete[Detail](ctx, c, pathf("%s/%d/positions/%d", sessionsPath, sessionID, positionID), nil, client.Raw())
	return err
}

func SessionPositions(ctx context.Context, c *client.Client, sessionID int64) ([]SessionPosition, error) {
	return client.Get[[]SessionPosition](ctx, c, pathf("%s/%d/positions", sessionsPath, sessionID), nil, client.Raw())
}
