package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// HandleStatic serves the PWA. Unknown paths get index.html so client side
// routes such as /oeuvres/{id} work on reload.
func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/api" {
		h.writeError(w, "Not found", http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Prevent directory traversal attacks
	if strings.Contains(r.URL.Path, "..") {
		h.writeError(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" {
		name = "index.html"
	}

	fullPath := filepath.Join(h.staticDir, filepath.FromSlash(name))
	info, err := os.Stat(fullPath)
	if err != nil || info.IsDir() {
		if path.Ext(name) != "" && name != "index.html" {
			// A missing asset is a real 404, not a client route
			h.writeError(w, "Not found", http.StatusNotFound)
			return
		}
		fullPath = filepath.Join(h.staticDir, "index.html")
		w.Header().Set("Cache-Control", "no-cache")
	}

	http.ServeFile(w, r, fullPath)
}
