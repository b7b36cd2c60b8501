package handlers

import (
	"bytes"
	"crypto/subtle"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/museetour/internal/catalog"
)

const maxCatalogBytes = 32 << 20

// HandleCatalogUpload replaces the live catalog with an uploaded file. The
// upload is validated before anything changes.
func (h *Handler) HandleCatalogUpload(w http.ResponseWriter, r *http.Request) {
	if h.adminToken == "" {
		h.writeError(w, "Catalog uploads are disabled", http.StatusForbidden)
		return
	}
	if !h.authorized(r) {
		w.Header().Set("WWW-Authenticate", `Bearer realm="museetour"`)
		h.writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCatalogBytes+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	format, err := catalog.FormatFromPath(header.Filename)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	fileData, err := io.ReadAll(io.LimitReader(file, maxCatalogBytes+1))
	if err != nil {
		h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(fileData) > maxCatalogBytes {
		h.writeError(w, "File too large (max 32MB)", http.StatusRequestEntityTooLarge)
		return
	}

	artworks, err := catalog.Decode(bytes.NewReader(fileData), format)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.catalog.Replace(artworks); err != nil {
		var verr *catalog.ValidationError
		if errors.As(err, &verr) {
			h.writeJSONStatus(w, http.StatusUnprocessableEntity, map[string]any{
				"message":  "Catalog is invalid",
				"problems": verr.Problems,
			})
			return
		}
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	persisted := false
	if h.catalogPath != "" {
		if err := catalog.Write(h.catalogPath, h.catalog.List()); err != nil {
			slog.Error("Failed to persist uploaded catalog", "path", h.catalogPath, "err", err)
		} else {
			persisted = true
		}
	}

	slog.Info("Catalog replaced", "file", header.Filename, "format", format, "artworks", len(artworks))
	h.writeJSON(w, map[string]any{
		"message":   "Catalog replaced",
		"artworks":  h.catalog.Len(),
		"rooms":     h.catalog.RoomNames(),
		"persisted": persisted,
	})
}

func (h *Handler) authorized(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(h.adminToken)) == 1
}
