// Package client is the HTTP client used to talk to the recruitment backend.
// It attaches the session's bearer token, unwraps the backend's response
// envelopes and translates failures into *Error values.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"clubhire.org/internal/audit"
	"clubhire.org/internal/obs"
	"clubhire.org/internal/session"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseBody = 8 << 20
	requestIDHeader = "X-Request-ID"
)

// Config describes how to reach the backend.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is safe for concurrent use. It never changes session state except
// through the 401 handling in fail.
type Client struct {
	baseURL    string
	http       *http.Client
	session    *session.Session
	classifier Classifier
	redirect   func(path string)
	log        *logrus.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRedirect installs a hook that performs a hard redirect to the login page
// after a 401, in addition to clearing the session.
func WithRedirect(fn func(path string)) Option {
	return func(c *Client) {
		c.redirect = fn
	}
}

// WithClassifier replaces the prefix lists used for undeclared response shapes.
func WithClassifier(cl Classifier) Option {
	return func(c *Client) {
		c.classifier = cl
	}
}

// WithLogger overrides the shared logger.
func WithLogger(l *logrus.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New builds a client bound to sess.
func New(cfg Config, sess *session.Session, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base != "" {
		if _, err := url.Parse(base); err != nil {
			return nil, fmt.Errorf("client: parse base url: %w", err)
		}
	}
	if sess == nil {
		return nil, errors.New("client: session is required")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	obs.InitClient()
	c := &Client{
		baseURL:    base,
		http:       hc,
		session:    sess,
		classifier: DefaultClassifier(),
		log:        obs.Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Session returns the session the client reads its token from.
func (c *Client) Session() *session.Session { return c.session }

// CallOption adjusts a single call.
type CallOption func(*call)

type call struct {
	shape   Shape
	headers http.Header
}

// Raw declares that the endpoint returns its payload without an envelope.
func Raw() CallOption { return func(c *call) { c.shape = ShapeRaw } }

// Wrapped declares that the endpoint returns a {code,data,message} envelope.
func Wrapped() CallOption { return func(c *call) { c.shape = ShapeWrapped } }

// WithShape declares shape explicitly.
func WithShape(s Shape) CallOption { return func(c *call) { c.shape = s } }

// WithHeader adds a request header for this call.
func WithHeader(key, value string) CallOption {
	return func(c *call) {
		if c.headers == nil {
			c.headers = http.Header{}
		}
		c.headers.Add(key, value)
	}
}

// Do performs one call and returns the unwrapped payload.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any, opts ...CallOption) (json.RawMessage, error) {
	cl := call{shape: ShapeAuto}
	for _, opt := range opts {
		opt(&cl)
	}
	shape := cl.shape
	if shape == ShapeAuto {
		shape = c.classifier.Classify(path)
	}

	start := time.Now()
	payload, status, err := c.send(ctx, method, path, query, body, cl.headers)
	if err == nil {
		payload, err = Normalize(shape, payload)
	}
	d := time.Since(start)

	fields := logrus.Fields{
		"method":      method,
		"path":        path,
		"shape":       shape.String(),
		"status":      status,
		"duration_ms": d.Milliseconds(),
	}
	if err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			obs.ObserveClientCall(method, shape.String(), string(ce.Kind), d)
			fields["kind"] = string(ce.Kind)
		}
		c.log.WithFields(fields).WithError(err).Warn("backend call failed")
		c.fail(ctx, err)
		return nil, err
	}
	obs.ObserveClientCall(method, shape.String(), "ok", d)
	c.log.WithFields(fields).Debug("backend call")
	return payload, nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any, headers http.Header) ([]byte, int, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("client: encode body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	rid := audit.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.NewString()
	}
	req.Header.Set(requestIDHeader, rid)
	if tok := c.session.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, NetworkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, resp.StatusCode, NetworkError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, Translate(resp.StatusCode, data)
	}
	return data, resp.StatusCode, nil
}

// fail runs the only side effect of error handling: a 401 expires the session
// and, when configured, redirects to the login page.
func (c *Client) fail(ctx context.Context, err error) {
	if !errors.Is(err, ErrUnauthorized) {
		return
	}
	if cerr := c.session.Expire(ctx); cerr != nil {
		c.log.WithError(cerr).Error("clear session after 401")
	}
	if c.redirect != nil {
		c.redirect(session.LoginPath)
	}
}

func decode[T any](raw json.RawMessage) (T, error) {
	var out T
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &Error{Kind: KindEnvelope, Message: MsgRequestFailed, Err: fmt.Errorf("decode payload: %w", err)}
	}
	return out, nil
}

// Get issues a GET with optional query parameters.
func Get[T any](ctx context.Context, c *Client, path string, query url.Values, opts ...CallOption) (T, error) {
	raw, err := c.Do(ctx, http.MethodGet, path, query, nil, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](raw)
}

// Post issues a POST with an optional JSON body.
func Post[T any](ctx context.Context, c *Client, path string, body any, opts ...CallOption) (T, error) {
	raw, err := c.Do(ctx, http.MethodPost, path, nil, body, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](raw)
}

// Put issues a PUT with an optional JSON body.
func Put[T any](ctx context.Context, c *Client, path string, body any, opts ...CallOption) (T, error) {
	raw, err := c.Do(ctx, http.MethodPut, path, nil, body, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](raw)
}

// Delete issues a DELETE with optional query parameters.
func Delete[T any](ctx context.Context, c *Client, path string, query url.Values, opts ...CallOption) (T, error) {
	raw, err := c.Do(ctx, http.MethodDelete, path, query, nil, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](raw)
}
