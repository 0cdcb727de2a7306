package api

import (
	"context"
	"net/url"

	"clubhire.org/internal/client"
)

type StatisticsOverview struct {
	TotalApplications    int `json:"totalApplications"`
	PendingApplications  int `json:"pendingApplications"`
	ApprovedApplications int `json:"approvedApplications"`
	RejectedApplications int `json:"rejectedApplications"`
	TotalInterviews      int `json:"totalInterviews"`
	CompletedInterviews  int `json:"completedInterviews"`
	UpcomingInterviews   int `json:"upcomingInterviews"`
}

type DepartmentStatistics struct {
	Department string `json:"department"`
	Total      int    `json:"total"`
	Approved   int    `json:"approved"`
	Rejected   int    `json:"rejected"`
	Pending    int    `json:"pending"`
}

type DailyStatistics struct {
	Date         string `json:"date"`
	Applications int    `json:"applications"`
	Interviews   int    `json:"interviews"`
}

// Dashboard is the club admin landing summary.
type Dashboard struct {
	ClubID             int64   `json:"club_id"`
	ClubName           string  `json:"club_name"`
	ActiveSessions     int     `json:"active_sessions"`
	PendingSignups     int     `json:"pending_signups"`
	UpcomingInterviews int     `json:"upcoming_interviews"`
	Interviewers       int     `json:"interviewers"`
	AcceptanceRate     float64 `json:"acceptance_rate"`
}

func OverviewStatistics(ctx context.Context, c *client.Client) (StatisticsOverview, error) {
	return client.Get[StatisticsOverview](ctx, c, "/api/statistics/overview", nil, client.Raw())
}

func DepartmentStats(ctx context.Context, c *client.Client, department string) ([]DepartmentStatistics, error) {
	v := url.Values{}
	setString(v, "department", department)
	return client.Get[[]DepartmentStatistics](ctx, c, "/api/statistics/department", v, client.Raw())
}

func DailyStats(ctx context.Context, c *client.Client, startDate, endDate, kind string) ([]DailyStatistics, error) {
	v := url.Values{"startDate": {startDate}, "endDate": {endDate}}
	setString(v, "type", kind)
	return client.Get[[]DailyStatistics](ctx, c, "/api/statistics/daily", v, client.Raw())
}

func AdminDashboard(ctx context.Context, c *client.Client) (Dashboard, error) {
	return client.Get[Dashboard](ctx, c, "/api/admin/dashboard", nil, client.Raw())
}
