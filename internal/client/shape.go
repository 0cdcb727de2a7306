package client

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Shape is the response envelope convention of an endpoint.
type Shape int

const (
	// ShapeAuto defers to the client's Classifier.
	ShapeAuto Shape = iota
	// ShapeRaw returns the body unchanged.
	ShapeRaw
	// ShapeWrapped unwraps {code,data,message} / {success,data} envelopes.
	ShapeWrapped
)

func (s Shape) String() string {
	switch s {
	case ShapeRaw:
		return "raw"
	case ShapeWrapped:
		return "wrapped"
	default:
		return "auto"
	}
}

// Classifier picks a shape for calls that did not declare one, from the
// request path alone. Direct prefixes are checked before wrapped prefixes;
// anything else is raw.
type Classifier struct {
	Direct  []string
	Wrapped []string
}

// DefaultClassifier covers the backend's /api/... endpoint families.
func DefaultClassifier() Classifier {
	return Classifier{
		Direct: []string{
			"/api/admin/signup/applications",
			"/api/admin/dashboard",
			"/api/admin/clubs",
			"/api/interviewer/invitations",
			"/api/interviewer/signup/applications",
		},
		Wrapped: []string{
			"/api/student",
			"/api/admin",
			"/api/interviewer",
		},
	}
}

// Classify returns ShapeRaw or ShapeWrapped for path.
func (c Classifier) Classify(path string) Shape {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	for _, p := range c.Direct {
		if strings.HasPrefix(path, p) {
			return ShapeRaw
		}
	}
	for _, p := range c.Wrapped {
		if strings.HasPrefix(path, p) {
			return ShapeWrapped
		}
	}
	return ShapeRaw
}

type envelope struct {
	Code    any             `json:"code"`
	Success any             `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message any             `json:"message"`
}

// ok reports whether the envelope signals success: a numeric code of 200
// (200 and 200.0 alike) or a truthy success flag.
func (e envelope) ok() bool {
	if n, isNum := e.Code.(float64); isNum && n == 200 {
		return true
	}
	return truthy(e.Success)
}

func (e envelope) message() string {
	if m, isStr := e.Message.(string); isStr {
		return strings.TrimSpace(m)
	}
	return ""
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	}
	return true
}

// Normalize applies shape to a successful response body and returns the payload.
func Normalize(shape Shape, body []byte) (json.RawMessage, error) {
	if shape != ShapeWrapped {
		return body, nil
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return trimmed, nil
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, &Error{Kind: KindEnvelope, Status: 200, Message: MsgRequestFailed, Err: err}
	}
	if !env.ok() {
		return nil, &Error{Kind: KindEnvelope, Status: 200, Message: orDefault(env.message(), MsgRequestFailed)}
	}
	if data := bytes.TrimSpace(env.Data); len(data) > 0 && !bytes.Equal(data, []byte("null")) {
		return data, nil
	}
	return trimmed, nil
}
