package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed call.
type Kind string

const (
	KindNetwork      Kind = "network"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindValidation   Kind = "validation"
	KindServer       Kind = "server"
	KindUnknown      Kind = "unknown"
	// KindEnvelope is a 2xx reply whose wrapped envelope reported failure.
	KindEnvelope Kind = "envelope"
)

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrNetwork      = errors.New("client: network failure")
	ErrUnauthorized = errors.New("client: unauthorized")
	ErrForbidden    = errors.New("client: forbidden")
	ErrNotFound     = errors.New("client: not found")
	ErrValidation   = errors.New("client: validation failed")
	ErrServer       = errors.New("client: server error")
	ErrUnknown      = errors.New("client: request failed")
	ErrEnvelope     = errors.New("client: envelope reported failure")
)

// Human-readable messages surfaced to callers.
const (
	MsgNetwork        = "network error"
	MsgSessionExpired = "session expired, please log in again"
	MsgForbidden      = "no permission"
	MsgNotFound       = "resource not found"
	MsgValidation     = "validation failed"
	MsgServer         = "server error"
	MsgRequestFailed  = "request failed"
	msgUnknownField   = "unknown field"
)

// FieldError is one entry of a 422 validation detail list.
type FieldError struct {
	Loc []string `json:"loc"`
	Msg string   `json:"msg"`
}

// Error is the single error type returned for failed calls. Message is always
// a human-readable string ready for display.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	return target != nil && sentinel(e.Kind) == target
}

func sentinel(k Kind) error {
	switch k {
	case KindNetwork:
		return ErrNetwork
	case KindUnauthorized:
		return ErrUnauthorized
	case KindForbidden:
		return ErrForbidden
	case KindNotFound:
		return ErrNotFound
	case KindValidation:
		return ErrValidation
	case KindServer:
		return ErrServer
	case KindEnvelope:
		return ErrEnvelope
	default:
		return ErrUnknown
	}
}

// Message returns the display message of err, falling back to err.Error().
func Message(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// NetworkError wraps a transport failure where no response was received.
func NetworkError(err error) *Error {
	return &Error{Kind: KindNetwork, Message: MsgNetwork, Err: err}
}

type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

type validationItem struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// Translate maps an HTTP error status and body into an *Error. It has no side effects.
func Translate(status int, body []byte) *Error {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)

	var (
		msg    string
		fields []FieldError
	)
	if status == http.StatusUnprocessableEntity {
		if items, ok := parseValidation(eb.Detail); ok {
			fields = items
			msg = joinValidation(items)
		}
	}
	if msg == "" && fields == nil {
		msg = detailMessage(eb.Detail)
	}
	if msg == "" {
		msg = strings.TrimSpace(eb.Message)
	}

	e := &Error{Status: status, Fields: fields}
	switch status {
	case http.StatusUnauthorized:
		e.Kind, e.Message = KindUnauthorized, MsgSessionExpired
	case http.StatusForbidden:
		e.Kind, e.Message = KindForbidden, MsgForbidden
	case http.StatusNotFound:
		e.Kind, e.Message = KindNotFound, MsgNotFound
	case http.StatusUnprocessableEntity:
		e.Kind, e.Message = KindValidation, orDefault(msg, MsgValidation)
	case http.StatusInternalServerError:
		e.Kind, e.Message = KindServer, orDefault(msg, MsgServer)
	default:
		e.Kind, e.Message = KindUnknown, orDefault(msg, MsgRequestFailed)
	}
	e.Err = fmt.Errorf("http status %d", status)
	return e
}

func parseValidation(raw json.RawMessage) ([]FieldError, bool) {
	raw = json.RawMessage(strings.TrimSpace(string(raw)))
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var items []validationItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	out := make([]FieldError, 0, len(items))
	for _, it := range items {
		loc := make([]string, 0, len(it.Loc))
		for _, seg := range it.Loc {
			loc = append(loc, locSegment(seg))
		}
		out = append(out, FieldError{Loc: loc, Msg: it.Msg})
	}
	return out, true
}

func locSegment(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return fmt.Sprintf("%g", s)
	default:
		return fmt.Sprint(s)
	}
}

func joinValidation(items []FieldError) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		loc := strings.Join(it.Loc, ".")
		if loc == "" {
			loc = msgUnknownField
		}
		parts = append(parts, loc+": "+it.Msg)
	}
	return strings.Join(parts, "; ")
}

// detailMessage reads detail as a string or as an object carrying msg/message.
func detailMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Msg != "" {
			return obj.Msg
		}
		return obj.Message
	}
	return ""
}

func orDefault(msg, def string) string {
	if msg == "" {
		return def
	}
	return msg
}
