package api

import (
	"context"
	"net/url"
	"strconv"

	"clubhire.org/internal/client"
)

type Notification struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Type      string `json:"type"`
	IsRead    bool   `json:"isRead"`
	RelatedID *int64 `json:"relatedId,omitempty"`
	CreatedAt string `json:"createdAt"`
}

type NotificationQuery struct {
	PageQuery
	IsRead *bool
}

func Notifications(ctx context.Context, c *client.Client, q NotificationQuery) (Page[Notification], error) {
	v := url.Values{}
	q.apply(v, "pageSize")
	if q.IsRead != nil {
		v.Set("isRead", strconv.FormatBool(*q.IsRead))
	}
	return client.Get[Page[Notification]](ctx, c, "/api/notifications", v, client.Raw())
}

func UnreadCount(ctx context.Context, c *client.Client) (int, error) {
	res, err := client.Get[struct {
		Count int `json:"count"`
	}](ctx, c, "/api/notifications/unread-count", nil, client.Raw())
	return res.Count, err
}

func MarkRead(ctx context.Context, c *client.Client, id int64) error {
	_, err := client.Put[Detail](ctx, c, pathf("/api/notifications/%d/read", id), nil, client.Raw())
	return err
}

func MarkAllRead(ctx context.Context, c *client.Client) error {
	_, err := client.Put[Detail](ctx, c, "/api/notifications/read-all", nil, client.Raw())
	return err
}
