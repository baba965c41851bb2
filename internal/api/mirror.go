package api

import (
	"crypto/subtle"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/store"
)

const maxMirrorBody = 16 << 20

// MirrorHandler serves this server's product mirror to other instances.
type MirrorHandler struct {
	DB    *sql.DB
	Token string
}

// requireToken rejects requests without the mirror bearer token. An empty
// token leaves the mirror open.
func (h *MirrorHandler) requireToken(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Token != "" {
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(got), []byte(h.Token)) != 1 {
				jsonError(w, http.StatusUnauthorized, "invalid mirror token")
				return
			}
		}
		next(w, r)
	})
}

// List handles GET /api/mirror/products.
func (h *MirrorHandler) List(w http.ResponseWriter, r *http.Request) {
	listings, err := store.ListMirrorProducts(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list mirror products", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	jsonResponse(w, http.StatusOK, listings)
}

// Upsert handles POST /api/mirror/products. Both the current listing shape
// and the legacy one are accepted.
func (h *MirrorHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, maxMirrorBody))
	if err != nil || !gjson.ValidBytes(data) {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec := gjson.ParseBytes(data)
	if !rec.IsObject() {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var l model.Listing
	if rec.Get("__backendId").Exists() {
		var ok bool
		if l, ok = store.LegacyListing(rec); !ok {
			jsonError(w, http.StatusBadRequest, "invalid product")
			return
		}
	} else if err := json.Unmarshal(data, &l); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid product")
		return
	}

	id, err := store.UpsertMirrorProduct(r.Context(), h.DB, l)
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		validationError(w, ve)
		return
	}
	if err != nil {
		slog.Error("failed to store mirror product", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to store product")
		return
	}

	slog.Debug("mirror product stored", "id", id)
	jsonResponse(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}
