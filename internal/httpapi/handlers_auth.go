package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ufukayyildiz/tocwtr2b/internal/domain/user"
	"github.com/ufukayyildiz/tocwtr2b/internal/httputil"
	"github.com/ufukayyildiz/tocwtr2b/internal/storage"
)

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Secret   string `json:"secret"`
	}
	if !httputil.DecodeJSON(w, r, &payload) {
		return
	}
	payload.Username = strings.TrimSpace(payload.Username)
	if payload.Username == "" || payload.Secret == "" {
		httputil.BadRequest(w, "Username and secret are required")
		return
	}

	data, ok, err := h.store.FindBy(r.Context(), storage.CollectionUsers, "username", payload.Username)
	if err != nil {
		h.storageFailure(w, r, err, "find user")
		return
	}

	// Absent user and wrong secret collapse into the same 401.
	var u user.User
	if ok {
		if err := json.Unmarshal(data, &u); err != nil {
			h.storageFailure(w, r, err, "decode user")
			return
		}
	}
	if !ok || !h.verifier.Verify(u.Secret, payload.Secret) {
		h.log.LogSecurityEvent(r.Context(), "login_failed", map[string]interface{}{
			"username": payload.Username,
			"path":     r.URL.Path,
		})
		httputil.Unauthorized(w, "Invalid credentials")
		return
	}

	s, err := h.sessions.Create(r.Context(), u.ID)
	if err != nil {
		h.storageFailure(w, r, err, "create session")
		return
	}
	token, err := h.tokens.Issue(s)
	if err != nil {
		h.storageFailure(w, r, err, "issue token")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user":    u.Public(),
		"token":   token,
		"message": "Login successful",
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if token := httputil.BearerToken(r); token != "" {
		if sid, err := h.tokens.Parse(token); err == nil {
			if err := h.sessions.Destroy(r.Context(), sid); err != nil {
				h.log.LogError(r.Context(), err, map[string]interface{}{
					"method": r.Method,
					"path":   r.URL.Path,
					"op":     "destroy session",
				})
			}
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}
