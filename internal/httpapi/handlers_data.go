package httpapi

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/ufukayyildiz/tocwtr2b/internal/domain/item"
	"github.com/ufukayyildiz/tocwtr2b/internal/httputil"
	"github.com/ufukayyildiz/tocwtr2b/internal/storage"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

func (h *Handler) listData(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", defaultPage)
	limit := queryInt(r, "limit", defaultLimit)
	if limit > maxLimit {
		limit = maxLimit
	}

	raw, err := h.store.List(r.Context(), storage.CollectionItems)
	if err != nil {
		h.storageFailure(w, r, err, "list data")
		return
	}

	items := make([]item.Item, 0, len(raw))
	for _, data := range raw {
		var it item.Item
		if err := json.Unmarshal(data, &it); err != nil {
			continue
		}
		items = append(items, it)
	}
	// Order by parsed creation time: RFC3339Nano trims trailing zeros, so
	// the strings themselves do not sort chronologically.
	sort.Slice(items, func(i, j int) bool {
		a, _ := items[i]["createdAt"].(string)
		b, _ := items[j]["createdAt"].(string)
		ta, errA := time.Parse(time.RFC3339Nano, a)
		tb, errB := time.Parse(time.RFC3339Nano, b)
		if errA != nil || errB != nil {
			return a < b
		}
		return ta.Before(tb)
	})

	total := len(items)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": items[start:end],
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (h *Handler) createData(w http.ResponseWriter, r *http.Request) {
	var fields map[string]interface{}
	if !httputil.DecodeJSON(w, r, &fields) {
		return
	}

	it := item.New(fields)
	data, err := json.Marshal(it)
	if err != nil {
		h.storageFailure(w, r, err, "marshal data item")
		return
	}
	if err := h.store.Put(r.Context(), storage.CollectionItems, it.ID(), data, 0); err != nil {
		h.storageFailure(w, r, err, "create data item")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, it)
}

func queryInt(r *http.Request, name string, fallback int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
