package client

import (
	"errors"
	"net/http"
	"testing"
)

func TestTranslate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		body   string
		want   error
		msg    string
	}{
		{
			name:   "validation list",
			status: http.StatusUnprocessableEntity,
			body:   `{"detail":[{"loc":["body","phone"],"msg":"invalid"}]}`,
			want:   ErrValidation,
			msg:    "body.phone: invalid",
		},
		{
			name:   "validation list joined",
			status: http.StatusUnprocessableEntity,
			body:   `{"detail":[{"loc":["body","phone"],"msg":"invalid"},{"loc":["query","page",0],"msg":"too small"},{"msg":"broken"}]}`,
			want:   ErrValidation,
			msg:    "body.phone: invalid; query.page.0: too small; unknown field: broken",
		},
		{
			name:   "validation string detail",
			status: http.StatusUnprocessableEntity,
			body:   `{"detail":"phone already registered"}`,
			want:   ErrValidation,
			msg:    "phone already registered",
		},
		{
			name:   "validation default",
			status: http.StatusUnprocessableEntity,
			body:   `{}`,
			want:   ErrValidation,
			msg:    MsgValidation,
		},
		{
			name:   "unauthorized ignores server text",
			status: http.StatusUnauthorized,
			body:   `{"detail":"Could not validate credentials"}`,
			want:   ErrUnauthorized,
			msg:    MsgSessionExpired,
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			body:   `{"detail":"club admin only"}`,
			want:   ErrForbidden,
			msg:    MsgForbidden,
		},
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   ``,
			want:   ErrNotFound,
			msg:    MsgNotFound,
		},
		{
			name:   "server with message",
			status: http.StatusInternalServerError,
			body:   `{"message":"db down"}`,
			want:   ErrServer,
			msg:    "db down",
		},
		{
			name:   "server default",
			status: http.StatusInternalServerError,
			body:   `not json`,
			want:   ErrServer,
			msg:    MsgServer,
		},
		{
			name:   "detail object",
			status: http.StatusBadRequest,
			body:   `{"detail":{"msg":"session closed"}}`,
			want:   ErrUnknown,
			msg:    "session closed",
		},
		{
			name:   "other default",
			status: http.StatusConflict,
			body:   `{}`,
			want:   ErrUnknown,
			msg:    MsgRequestFailed,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Translate(tc.status, []byte(tc.body))
			if !errors.Is(got, tc.want) {
				t.Fatalf("Translate() kind = %s, want %v", got.Kind, tc.want)
			}
			if got.Message != tc.msg {
				t.Fatalf("Translate() message = %q, want %q", got.Message, tc.msg)
			}
			if got.Status != tc.status {
				t.Fatalf("Translate() status = %d, want %d", got.Status, tc.status)
			}
		})
	}
}

func TestTranslateKeepsValidationFields(t *testing.T) {
	got := Translate(http.StatusUnprocessableEntity, []byte(`{"detail":[{"loc":["body","phone"],"msg":"invalid"}]}`))
	if len(got.Fields) != 1 || got.Fields[0].Msg != "invalid" || len(got.Fields[0].Loc) != 2 {
		t.Fatalf("unexpected fields: %+v", got.Fields)
	}
}

func TestMessage(t *testing.T) {
	if got := Message(NetworkError(errors.New("dial tcp"))); got != MsgNetwork {
		t.Fatalf("Message() = %q", got)
	}
	if got := Message(errors.New("plain")); got != "plain" {
		t.Fatalf("Message() = %q", got)
	}
}
