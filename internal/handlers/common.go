package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lehigh-university-libraries/museetour/internal/catalog"
	"github.com/lehigh-university-libraries/museetour/internal/navigation"
	"github.com/lehigh-university-libraries/museetour/internal/scan"
	"github.com/lehigh-university-libraries/museetour/internal/session"
	"github.com/lehigh-university-libraries/museetour/internal/storage"
)

// Options configures a Handler
type Options struct {
	Catalog      *catalog.Catalog
	Resolver     *scan.Resolver
	Sessions     *storage.SessionStore
	StaticDir    string
	MediaDir     string
	PublicDomain string
	AdminToken   string
	// CatalogPath, when set, receives catalogs uploaded through the admin API
	CatalogPath string
	CORSOrigins []string
}

type Handler struct {
	catalog   *catalog.Catalog
	resolver  *scan.Resolver
	navigator *navigation.Navigator
	sessions  *storage.SessionStore

	staticDir    string
	mediaDir     string
	publicDomain string
	adminToken   string
	catalogPath  string
	corsOrigins  []string
}

func New(opts Options) *Handler {
	nav := navigation.New(opts.Catalog)
	sessions := opts.Sessions
	if sessions == nil {
		sessions = storage.New(opts.Resolver, nav, storage.DefaultTTL)
	}
	return &Handler{
		catalog:      opts.Catalog,
		resolver:     opts.Resolver,
		navigator:    nav,
		sessions:     sessions,
		staticDir:    opts.StaticDir,
		mediaDir:     opts.MediaDir,
		publicDomain: opts.PublicDomain,
		adminToken:   opts.AdminToken,
		catalogPath:  opts.CatalogPath,
		corsOrigins:  opts.CORSOrigins,
	}
}

// Sessions exposes the store so the server can run its janitor
func (h *Handler) Sessions() *storage.SessionStore {
	return h.sessions
}

// Routes mounts every endpoint on a chi router
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger)

	origins := h.corsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Accept-Language", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/oeuvres", h.HandleListArtworks)
		r.Get("/oeuvres/qr/{ref}", h.HandleArtworkByQRRef)
		r.Get("/oeuvres/{id}", h.HandleGetArtwork)
		r.Get("/oeuvres/{id}/qrcode.png", h.HandleQRCode)
		r.Get("/rooms", h.HandleRooms)

		r.Post("/scan", h.HandleScan)
		r.Route("/scan/sessions", func(r chi.Router) {
			r.Post("/", h.HandleCreateSession)
			r.Get("/{id}", h.HandleGetSession)
			r.Delete("/{id}", h.HandleDeleteSession)
			r.Post("/{id}/permission", h.HandlePermission)
			r.Post("/{id}/retry", h.HandleRetry)
			r.Post("/{id}/detections", h.HandleDetection)
		})

		r.Post("/admin/catalog", h.HandleCatalogUpload)
	})

	if h.mediaDir != "" {
		r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(h.mediaDir))))
	}
	r.NotFound(h.HandleStatic)
	return r
}

// requestLogger logs one line per request with slog
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message)
	} else {
		slog.Debug(message, "status", code)
	}
	http.Error(w, message, code)
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, sessionID string) (*session.Session, bool) {
	sess, exists := h.sessions.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}
