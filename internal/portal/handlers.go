package portal

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"clubhire.org/internal/api"
	"clubhire.org/internal/client"
	"clubhire.org/internal/guard"
	"clubhire.org/internal/httpapi"
	"clubhire.org/internal/roles"
	"clubhire.org/internal/session"
)

type loginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Redirect string `json:"redirect"`
}

type userView struct {
	Profile *session.Profile `json:"profile"`
	Role    roles.Role       `json:"role,omitempty"`
}

// page is what an allowed navigation renders.
type page struct {
	Path   string            `json:"path"`
	Title  string            `json:"title"`
	Route  string            `json:"route,omitempty"`
	Params map[string]string `json:"params,omitempty"`
	Role   roles.Role        `json:"role,omitempty"`
	User   *session.Profile  `json:"user,omitempty"`
}

func view(b *browser) userView {
	role, _ := b.sess.PrimaryRole()
	return userView{Profile: b.sess.Profile(), Role: role}
}

// handlePage runs the guard for a page navigation.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request, b *browser) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		httpapi.MethodNotAllowed(w, r, http.MethodGet, http.MethodHead)
		return
	}
	d := b.guard.Navigate(r.Context(), r.URL.RequestURI())
	if !d.Allowed() {
		http.Redirect(w, r, d.Redirect, http.StatusFound)
		return
	}
	if d.Match == nil {
		httpapi.WriteError(w, r, http.StatusNotFound, "page not found")
		return
	}
	role, _ := b.sess.PrimaryRole()
	httpapi.WriteJSON(w, http.StatusOK, page{
		Path:   d.Target,
		Title:  d.Title,
		Route:  d.Match.Route.Name,
		Params: d.Match.Params,
		Role:   role,
		User:   b.sess.Profile(),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request, b *browser) {
	if r.Method != http.MethodPost {
		httpapi.MethodNotAllowed(w, r, http.MethodPost)
		return
	}
	req, err := readLogin(w, r)
	if err != nil {
		httpapi.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Phone == "" || req.Password == "" {
		httpapi.WriteError(w, r, http.StatusBadRequest, "phone and password are required")
		return
	}
	if _, err := b.sess.Login(r.Context(), api.Authenticator{Client: b.client}, req.Phone, req.Password); err != nil {
		s.writeBackendError(w, r, err)
		return
	}

	target, ok := guard.SafeRedirect(req.Redirect)
	if !ok {
		target = b.guard.Home()
	}
	d := b.guard.Navigate(r.Context(), target)
	if !d.Allowed() {
		target = d.Redirect
	}
	out := view(b)
	httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"redirect": target,
		"profile":  out.Profile,
		"role":     out.Role,
	})
}

// readLogin accepts JSON or a classic form post.
func readLogin(w http.ResponseWriter, r *http.Request) (loginRequest, error) {
	var req loginRequest
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		req.Phone = r.PostForm.Get("phone")
		req.Password = r.PostForm.Get("password")
		req.Redirect = r.PostForm.Get("redirect")
		if req.Redirect == "" {
			req.Redirect = r.URL.Query().Get("redirect")
		}
		return req, nil
	}
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		return req, err
	}
	return req, nil
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, b *browser) {
	if r.Method != http.MethodPost {
		httpapi.MethodNotAllowed(w, r, http.MethodPost)
		return
	}
	if err := b.sess.Logout(r.Context()); err != nil {
		s.log.WithError(err).Warn("logout")
		httpapi.WriteError(w, r, http.StatusServiceUnavailable, "session store unavailable")
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]string{"redirect": session.LoginPath})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, b *browser) {
	if r.Method != http.MethodGet {
		httpapi.MethodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !b.sess.Authenticated() {
		httpapi.WriteJSON(w, http.StatusUnauthorized, map[string]any{
			"error":    client.MsgSessionExpired,
			"redirect": session.LoginPath,
		})
		return
	}
	if !b.sess.HasProfile() {
		p, err := api.Me(r.Context(), b.client)
		if err != nil {
			s.writeBackendError(w, r, err)
			return
		}
		b.sess.SetProfile(p)
	}
	httpapi.WriteJSON(w, http.StatusOK, view(b))
}

// handleProxy relays /api/proxy/<rest> to the backend's /api/<rest>. The
// response shape follows the client's classifier unless the caller names
// one in X-Clubhire-Shape.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request, b *browser) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/proxy/")
	if rest == "" || strings.Contains(rest, "..") {
		httpapi.WriteError(w, r, http.StatusNotFound, "not found")
		return
	}
	var opts []client.CallOption
	switch strings.ToLower(r.Header.Get("X-Clubhire-Shape")) {
	case "raw":
		opts = append(opts, client.Raw())
	case "wrapped":
		opts = append(opts, client.Wrapped())
	}

	var body any
	if r.Body != nil && r.Method != http.MethodGet && r.Method != http.MethodHead {
		buf, err := io.ReadAll(r.Body)
		if err != nil {
			httpapi.WriteError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		if len(strings.TrimSpace(string(buf))) > 0 {
			if !json.Valid(buf) {
				httpapi.WriteError(w, r, http.StatusBadRequest, "request body must be JSON")
				return
			}
			body = json.RawMessage(buf)
		}
	}

	payload, err := b.client.Do(r.Context(), r.Method, "/api/"+rest, r.URL.Query(), body, opts...)
	if err != nil {
		s.writeBackendError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	_, _ = w.Write(payload)
}

// writeBackendError renders a translated backend failure. A 401 has already
// cleared the session inside the client; the browser is told where to go.
func (s *Server) writeBackendError(w http.ResponseWriter, r *http.Request, err error) {
	var ce *client.Error
	if !errors.As(err, &ce) {
		s.log.WithError(err).Error("backend call")
		httpapi.WriteError(w, r, http.StatusBadGateway, client.MsgRequestFailed)
		return
	}
	payload := map[string]any{
		"error": ce.Message,
		"kind":  ce.Kind,
	}
	if len(ce.Fields) > 0 {
		payload["fields"] = ce.Fields
	}
	if rid := httpapi.RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	if ce.Kind == client.KindUnauthorized {
		payload["redirect"] = session.LoginPath
	}
	httpapi.WriteJSON(w, statusFor(ce), payload)
}

func statusFor(ce *client.Error) int {
	switch ce.Kind {
	case client.KindNetwork:
		return http.StatusBadGateway
	case client.KindEnvelope:
		return http.StatusBadRequest
	case client.KindServer:
		return http.StatusBadGateway
	}
	if ce.Status >= 400 && ce.Status <= 599 {
		return ce.Status
	}
	return http.StatusBadGateway
}
