package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/lehigh-university-libraries/museetour/internal/catalog"
	"github.com/lehigh-university-libraries/museetour/internal/i18n"
	"github.com/lehigh-university-libraries/museetour/internal/models"
	"github.com/lehigh-university-libraries/museetour/internal/qrcode"
)

// negotiate picks the response language from ?lang= then Accept-Language
func negotiate(w http.ResponseWriter, r *http.Request) language.Tag {
	tag := i18n.Negotiate(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
	w.Header().Set("Content-Language", i18n.Code(tag))
	w.Header().Add("Vary", "Accept-Language")
	return tag
}

func (h *Handler) HandleListArtworks(w http.ResponseWriter, r *http.Request) {
	tag := negotiate(w, r)
	room := r.URL.Query().Get("room")

	views := []models.ArtworkView{}
	for _, a := range h.catalog.List() {
		if room != "" && a.Room != room {
			continue
		}
		views = append(views, i18n.Localize(a, tag))
	}
	h.writeJSON(w, views)
}

func (h *Handler) HandleGetArtwork(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, err := h.catalog.Get(id)
	if err != nil {
		h.writeCatalogError(w, err)
		return
	}
	h.writeJSON(w, i18n.Localize(a, negotiate(w, r)))
}

func (h *Handler) HandleArtworkByQRRef(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")
	a, err := h.catalog.GetByQRRef(ref)
	if err != nil {
		h.writeCatalogError(w, err)
		return
	}
	h.writeJSON(w, i18n.Localize(a, negotiate(w, r)))
}

func (h *Handler) HandleRooms(w http.ResponseWriter, r *http.Request) {
	tag := negotiate(w, r)
	byRoom := h.catalog.ByRoom()

	rooms := make([]models.Room, 0, len(byRoom))
	for _, name := range h.catalog.RoomNames() {
		room := models.Room{Name: name}
		for _, a := range byRoom[name] {
			room.Artworks = append(room.Artworks, i18n.Localize(a, tag))
		}
		rooms = append(rooms, room)
	}
	h.writeJSON(w, rooms)
}

// HandleQRCode renders the label QR code for an artwork
func (h *Handler) HandleQRCode(w http.ResponseWriter, r *http.Request) {
	a, err := h.catalog.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeCatalogError(w, err)
		return
	}

	size := qrcode.DefaultSize
	if s := r.URL.Query().Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 64 || n > 2048 {
			h.writeError(w, "size must be an integer between 64 and 2048", http.StatusBadRequest)
			return
		}
		size = n
	}

	domain := h.publicDomain
	if domain == "" {
		domain = r.Host
	}
	link, err := qrcode.LinkFor(domain, a.QRRef())
	if err != nil {
		h.writeError(w, "Unable to build QR link: "+err.Error(), http.StatusInternalServerError)
		return
	}
	png, err := qrcode.PNG(link, size)
	if err != nil {
		h.writeError(w, "Unable to render QR code: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `inline; filename="`+a.ID+`.png"`)
	w.Header().Set("X-QR-Link", link)
	if _, err := w.Write(png); err != nil {
		h.writeError(w, "Unable to write QR code", http.StatusInternalServerError)
	}
}

func (h *Handler) writeCatalogError(w http.ResponseWriter, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		h.writeError(w, "Artwork not found", http.StatusNotFound)
		return
	}
	h.writeError(w, err.Error(), http.StatusInternalServerError)
}
