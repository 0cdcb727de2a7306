package api

import (
	"context"
	"net/url"

	"clubhire.org/internal/client"
)

type Ticket struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	StudentID   int64  `json:"studentId"`
	StudentName string `json:"studentName"`
	Reply       string `json:"reply,omitempty"`
	RepliedBy   string `json:"repliedBy,omitempty"`
	RepliedAt   string `json:"repliedAt,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type TicketQuery struct {
	PageQuery
	Status   string
	Type     string
	Priority string
}

type CreateTicketParams struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Type     string `json:"type"`
	Priority string `json:"priority,omitempty"`
}

func Tickets(ctx context.Context, c *client.Client, q TicketQuery) (Page[Ticket], error) {
	v := url.Values{}
	q.apply(v, "pageSize")
	setString(v, "status", q.Status)
	setString(v, "type", q.Type)
	setString(v, "priority", q.Priority)
	return client.Get[Page[Ticket]](ctx, c, "/api/tickets", v, client.Raw())
}

func GetTicket(ctx context.Context, c *client.Client, id int64) (Ticket, error) {
	return client.Get[Ticket](ctx, c, pathf("/api/tickets/%d", id), nil, client.Raw())
}

func CreateTicket(ctx context.Context, c *client.Client, p CreateTicketParams) (Ticket, error) {
	return client.Post[Ticket](ctx, c, "/api/tickets", p, client.Raw())
}

func ReplyTicket(ctx context.Context, c *client.Client, id int64, reply string) (Ticket, error) {
	return client.Put[Ticket](ctx, c, pathf("/api/tickets/%d/reply", id), map[string]string{"reply": reply}, client.Raw())
}

func CloseTicket(ctx context.Context, c *client.Client, id int64) (Ticket, error) {
	return client.Put[Ticket](ctx, c, pathf("/api/tickets/%d/close", id), nil, client.Raw())
}

// MyTickets lists the current student's tickets.
func MyTickets(ctx context.Context, c *client.Client) ([]Ticket, error) {
	return client.Get[[]Ticket](ctx, c, "/api/student/tickets", nil, client.Wrapped())
}
