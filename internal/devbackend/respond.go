package devbackend

import (
	"encoding/json"
	"net/http"

	"clubhire.org/internal/httpapi"
)

// fieldError is one entry of a 422 detail list.
type fieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// raw writes v without an envelope.
func raw(w http.ResponseWriter, v any) {
	httpapi.WriteJSON(w, http.StatusOK, v)
}

// wrapped writes the {code,data,message} envelope of the student, admin and
// interviewer families.
func wrapped(w http.ResponseWriter, v any) {
	httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"code":    200,
		"data":    v,
		"message": "success",
	})
}

// wrappedFailure reports a business failure inside a 200 envelope.
func wrappedFailure(w http.ResponseWriter, code int, msg string) {
	httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"code":    code,
		"data":    nil,
		"message": msg,
	})
}

// detail writes a FastAPI-style {"detail": msg} error.
func detail(w http.ResponseWriter, code int, msg string) {
	if code == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	httpapi.WriteJSON(w, code, map[string]string{"detail": msg})
}

func invalid(w http.ResponseWriter, errs []fieldError) {
	httpapi.WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": errs})
}

// decode reads a JSON body. Malformed JSON is a 422 the way FastAPI reports it.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst); err != nil {
		invalid(w, []fieldError{{Loc: []string{"body"}, Msg: "invalid JSON body", Type: "value_error.jsondecode"}})
		return false
	}
	return true
}

// required reports missing string fields as a 422 detail list.
func required(w http.ResponseWriter, fields map[string]string) bool {
	var errs []fieldError
	for _, name := range sortedKeys(fields) {
		if fields[name] == "" {
			errs = append(errs, fieldError{Loc: []string{"body", name}, Msg: "field required", Type: "value_error.missing"})
		}
	}
	if len(errs) > 0 {
		invalid(w, errs)
		return false
	}
	return true
}
