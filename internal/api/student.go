package api

import (
	"context"
	"net/url"

	"clubhire.org/internal/client"
)

type StudentApplication struct {
	ID           int64  `json:"id"`
	Department   string `json:"department"`
	Introduction string `json:"introduction"`
	Status       string `json:"status"`
	ApplyTime    string `json:"applyTime"`
	Remark       string `json:"remark,omitempty"`
}

type StudentInterview struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	StartTime string `json:"startTime"`
	Location  string `json:"location"`
	Status    string `json:"status"`
}

type UpdateProfileParams struct {
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Nickname string `json:"nickname,omitempty"`
}

type School struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

func MyApplication(ctx context.Context, c *client.Client) (StudentApplication, error) {
	return client.Get[StudentApplication](ctx, c, "/api/student/application", nil, client.Wrapped())
}

func SubmitApplication(ctx context.Context, c *client.Client, department, introduction string) (StudentApplication, error) {
	body := map[string]string{"department": department, "introduction": introduction}
	return client.Post[StudentApplication](ctx, c, "/api/student/application", body, client.Wrapped())
}

func MyInterview(ctx context.Context, c *client.Client) (StudentInterview, error) {
	return client.Get[StudentInterview](ctx, c, "/api/student/interview", nil, client.Wrapped())
}

func UpdateStudentProfile(ctx context.Context, c *client.Client, p UpdateProfileParams) (Detail, error) {
	return client.Put[Detail](ctx, c, "/api/student/profile", p, client.Wrapped())
}

// SearchSchools matches schools by name or code.
func SearchSchools(ctx context.Context, c *client.Client, keyword string) (Page[School], error) {
	return client.Get[Page[School]](ctx, c, "/api/schools/search", url.Values{"q": {keyword}}, client.Raw())
}
