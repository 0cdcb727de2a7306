package api

import (
	"context"
	"net/url"

	"clubhire.org/internal/client"
)

type ScoreCriterion struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	MaxScore float64 `json:"maxScore"`
}

type ScoreItem struct {
	ID                int64   `json:"id"`
	InterviewResultID int64   `json:"interviewResultId"`
	CriterionID       int64   `json:"criterionId"`
	CriterionName     string  `json:"criterionName"`
	Score             float64 `json:"score"`
	MaxScore          float64 `json:"maxScore"`
	Remark            string  `json:"remark,omitempty"`
}

type CriterionScore struct {
	CriterionID int64   `json:"criterionId"`
	Score       float64 `json:"score"`
	Remark      string  `json:"remark,omitempty"`
}

type ScoreParams struct {
	InterviewResultID int64            `json:"interviewResultId"`
	Scores            []CriterionScore `json:"scores"`
	Remark            string           `json:"remark,omitempty"`
}

func ScoreCriteria(ctx context.Context, c *client.Client, department string) ([]ScoreCriterion, error) {
	v := url.Values{}
	setString(v, "department", department)
	return client.Get[[]ScoreCriterion](ctx, c, "/api/score/criteria", v, client.Raw())
}

func SubmitScore(ctx context.Context, c *client.Client, p ScoreParams) (Detail, error) {
	return client.Post[Detail](ctx, c, "/api/score", p, client.Raw())
}

func ScoreDetail(ctx context.Context, c *client.Client, resultID int64) ([]ScoreItem, error) {
	return client.Get[[]ScoreItem](ctx, c, pathf("/api/score/%d", resultID), nil, client.Raw())
}

func UpdateScore(ctx context.Context, c *client.Client, resultID int64, p ScoreParams) (Detail, error) {
	return client.Put[Detail](ctx, c, pathf("/api/score/%d", resultID), p, client.Raw())
}
