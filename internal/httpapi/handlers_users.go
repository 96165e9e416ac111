package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/ufukayyildiz/tocwtr2b/internal/domain/user"
	"github.com/ufukayyildiz/tocwtr2b/internal/httputil"
	"github.com/ufukayyildiz/tocwtr2b/internal/storage"
)

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	raw, err := h.store.List(r.Context(), storage.CollectionUsers)
	if err != nil {
		h.storageFailure(w, r, err, "list users")
		return
	}

	users := make([]user.User, 0, len(raw))
	for _, data := range raw {
		var u user.User
		if err := json.Unmarshal(data, &u); err != nil {
			continue
		}
		users = append(users, u.Public())
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"total": len(users),
	})
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
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

	u := user.New(payload.Username, payload.Secret)
	data, err := json.Marshal(u)
	if err != nil {
		h.storageFailure(w, r, err, "marshal user")
		return
	}

	// Uniqueness is decided here and only here: the adapter's conditional
	// write resolves concurrent duplicates, never a prior read.
	unique := storage.Uniqueness{Field: "username", Value: u.Username}
	if err := h.store.CreateIfAbsent(r.Context(), storage.CollectionUsers, u.ID, unique, data, 0); err != nil {
		if storage.IsConflict(err) {
			httputil.Conflict(w, "Username already exists")
			return
		}
		h.storageFailure(w, r, err, "create user")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, u.Public())
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	data, ok, err := h.store.Get(r.Context(), storage.CollectionUsers, id)
	if err != nil {
		h.storageFailure(w, r, err, "get user")
		return
	}
	if !ok {
		httputil.NotFound(w, "User not found")
		return
	}

	var u user.User
	if err := json.Unmarshal(data, &u); err != nil {
		h.storageFailure(w, r, err, "decode user")
		return
	}
	// Response shaping: the secret never leaves the handler layer.
	httputil.WriteJSON(w, http.StatusOK, u.Public())
}
