package api

import (
	"context"
	"encoding/json"
	"net/url"

	"clubhire.org/internal/client"
)

type Interview struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Department   string   `json:"department"`
	StartTime    string   `json:"startTime"`
	EndTime      string   `json:"endTime"`
	Location     string   `json:"location"`
	Interviewers []string `json:"interviewers"`
	Status       string   `json:"status"`
	Remark       string   `json:"remark,omitempty"`
}

type InterviewResult struct {
	ID            int64    `json:"id"`
	InterviewID   int64    `json:"interviewId"`
	ApplicationID int64    `json:"applicationId"`
	StudentName   string   `json:"studentName"`
	StudentNo     string   `json:"studentNo"`
	InterviewTime string   `json:"interviewTime"`
	Score         *float64 `json:"score,omitempty"`
	Remark        string   `json:"remark,omitempty"`
	Status        string   `json:"status"`
}

type InterviewQuery struct {
	PageQuery
	Status     string
	Department string
	Date       string
}

// InterviewTask is one interview assigned to the current interviewer.
type InterviewTask struct {
	ID            int64  `json:"id"`
	InterviewID   int64  `json:"interview_id"`
	CandidateName string `json:"candidate_name"`
	Position      string `json:"position"`
	StartTime     string `json:"start_time"`
	Location      string `json:"location"`
	Status        string `json:"status"`
}

func Interviews(ctx context.Context, c *client.Client, q InterviewQuery) (Page[Interview], error) {
	v := url.Values{}
	q.apply(v, "pageSize")
	setString(v, "status", q.Status)
	setString(v, "department", q.Department)
	setString(v, "date", q.Date)
	return client.Get[Page[Interview]](ctx, c, "/api/interviews", v, client.Raw())
}

func GetInterview(ctx context.Context, c *client.Client, id int64) (Interview, error) {
	return client.Get[Interview](ctx, c, pathf("/api/interviews/%d", id), nil, client.Raw())
}

func CreateInterview(ctx context.Context, c *client.Client, in Interview) (Interview, error) {
	return client.Post[Interview](ctx, c, "/api/interviews", in, client.Raw())
}

func UpdateInterview(ctx context.Context, c *client.Client, id int64, in Interview) (Interview, error) {
	return client.Put[Interview](ctx, c, pathf("/api/interviews/%d", id), in, client.Raw())
}

func DeleteInterview(ctx context.Context, c *client.Client, id int64) error {
	_, err := client.Delete[json.RawMessage](ctx, c, pathf("/api/interviews/%d", id), nil, client.Raw())
	return err
}

func InterviewResults(ctx context.Context, c *client.Client, interviewID int64, q PageQuery) (Page[InterviewResult], error) {
	v := url.Values{}
	q.apply(v, "pageSize")
	return client.Get[Page[InterviewResult]](ctx, c, pathf("/api/interviews/%d/results", interviewID), v, client.Raw())
}

func AssignInterviewers(ctx context.Context, c *client.Client, interviewID int64, interviewers []string) (Interview, error) {
	return client.Put[Interview](ctx, c, pathf("/api/interviews/%d/interviewers", interviewID), map[string][]string{"interviewers": interviewers}, client.Raw())
}

// MyInterviewTasks lists the current interviewer's tasks.
func MyInterviewTasks(ctx context.Context, c *client.Client) ([]InterviewTask, error) {
	return client.Get[[]InterviewTask](ctx, c, "/api/interviewer/tasks", nil, client.Wrapped())
}

func StudentInterviewResult(ctx context.Context, c *client.Client, studentID int64) (InterviewResult, error) {
	return client.Get[InterviewResult](ctx, c, pathf("/api/students/%d/interview-result", studentID), nil, client.Raw())
}
