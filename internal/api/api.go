// Package api holds the typed wrappers for the recruitment backend's REST
// endpoint families. Each wrapper declares the response shape of its endpoint
// so the client never has to guess it from the path.
package api

import (
	"fmt"
	"net/url"
	"strconv"
)

// Page is the {items,total} list envelope used by several endpoints.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// Detail is the {detail} acknowledgement most mutations return.
type Detail struct {
	Detail string `json:"detail"`
}

// PageQuery is the common pagination query.
type PageQuery struct {
	Page     int
	PageSize int
}

func (q PageQuery) apply(v url.Values, sizeKey string) {
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set(sizeKey, strconv.Itoa(q.PageSize))
	}
}

func pathf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

func setInt(v url.Values, key string, n int64) {
	if n != 0 {
		v.Set(key, strconv.FormatInt(n, 10))
	}
}

func setString(v url.Values, key, s string) {
	if s != "" {
		v.Set(key, s)
	}
}
