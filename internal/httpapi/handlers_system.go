package httpapi

import (
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/ufukayyildiz/tocwtr2b/internal/httputil"
)

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": h.env,
		"platform":    "TR2B Application",
		"message":     "TR2B server is running",
		"uptime":      time.Since(h.startTime).Round(time.Second).String(),
	})
}

func (h *Handler) envInfo(w http.ResponseWriter, r *http.Request) {
	meta := metaFrom(r)

	payload := map[string]interface{}{
		"platform":    "TR2B Application",
		"environment": h.env,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	}
	if meta.EdgeLocation != "" {
		payload["region"] = meta.EdgeLocation
	}
	if meta.Country != "" {
		payload["country"] = meta.Country
	}

	if info, err := host.InfoWithContext(r.Context()); err == nil {
		payload["host"] = map[string]interface{}{
			"hostname":        info.Hostname,
			"os":              info.OS,
			"platform":        info.Platform,
			"platformVersion": info.PlatformVersion,
			"uptime":          info.Uptime,
		}
	}

	httputil.WriteJSON(w, http.StatusOK, payload)
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	token := httputil.BearerToken(r)
	if token == "" {
		httputil.NotFound(w, "Session not found")
		return
	}

	sid, err := h.tokens.Parse(token)
	if err != nil {
		httputil.NotFound(w, "Session not found")
		return
	}

	s, ok, err := h.sessions.Resolve(r.Context(), sid)
	if err != nil {
		h.storageFailure(w, r, err, "resolve session")
		return
	}
	if !ok {
		httputil.NotFound(w, "Session not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"session": s})
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Create(r.Context(), "")
	if err != nil {
		h.storageFailure(w, r, err, "create session")
		return
	}

	token, err := h.tokens.Issue(s)
	if err != nil {
		h.storageFailure(w, r, err, "issue session token")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"session": s,
		"token":   token,
		"message": "Session created",
	})
}
