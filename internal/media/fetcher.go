// Package media mirrors remote artwork media into a local directory served
// under /media, so the tour keeps working when the source host is offline.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/lehigh-university-libraries/museetour/internal/models"
)

// PublicPrefix is the URL path the mirrored directory is served from
const PublicPrefix = "/media"

// DefaultMaxBytes caps a single download
const DefaultMaxBytes = 200 << 20

// Fetcher downloads artwork media
type Fetcher struct {
	HTTPClient *http.Client
	MaxBytes   int64
}

// NewFetcher creates a new media fetcher
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		MaxBytes: DefaultMaxBytes,
	}
}

// mediaRef is one URL field of an artwork together with the name its local copy gets
type mediaRef struct {
	kind string
	url  *string
}

func refs(a *models.Artwork) []mediaRef {
	out := []mediaRef{
		{"image", &a.ImageURL},
		{"audio", &a.AudioURL},
		{"video", &a.VideoURL},
		{"model", &a.Model3DURL},
	}
	for i := range a.Descriptions {
		d := &a.Descriptions[i]
		out = append(out,
			mediaRef{"audio-" + d.Lang, &d.AudioURL},
			mediaRef{"video-" + d.Lang, &d.VideoURL},
		)
	}
	return out
}

// Mirror downloads every remote media URL of the artwork into dir and returns
// a copy pointing at the local files, plus how many files were downloaded.
// Files already present are reused. URLs that fail keep their remote value
// and are reported in the joined error.
func (f *Fetcher) Mirror(ctx context.Context, artwork models.Artwork, dir string) (models.Artwork, int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return artwork, 0, fmt.Errorf("failed to create media directory: %w", err)
	}

	artwork.Descriptions = append([]models.Description(nil), artwork.Descriptions...)
	downloaded := 0
	var errs []error

	for _, ref := range refs(&artwork) {
		raw := *ref.url
		if !IsRemote(raw) {
			continue
		}
		base := artwork.ID + "-" + ref.kind

		if name, ok := existing(dir, base, raw); ok {
			slog.Debug("Media already mirrored", "artwork_id", artwork.ID, "file", name)
			*ref.url = PublicPrefix + "/" + name
			continue
		}

		name, err := f.download(ctx, raw, dir, base)
		if err != nil {
			slog.Warn("Failed to mirror media", "artwork_id", artwork.ID, "url", raw, "err", err)
			errs = append(errs, fmt.Errorf("%s %s: %w", artwork.ID, ref.kind, err))
			continue
		}
		slog.Info("Mirrored media", "artwork_id", artwork.ID, "url", raw, "file", name)
		*ref.url = PublicPrefix + "/" + name
		downloaded++
	}

	return artwork, downloaded, errors.Join(errs...)
}

// IsRemote reports whether raw is an absolute http(s) URL
func IsRemote(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// extFromURL returns a short, safe extension from the URL path, or ""
func extFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if len(ext) < 2 || len(ext) > 6 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

func existing(dir, base, raw string) (string, bool) {
	if ext := extFromURL(raw); ext != "" {
		name := base + ext
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return name, true
		}
		return "", false
	}
	matches, err := filepath.Glob(filepath.Join(dir, base+".*"))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	return filepath.Base(matches[0]), true
}

func (f *Fetcher) download(ctx context.Context, raw, dir, base string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("media URL returned status %d", resp.StatusCode)
	}

	maxBytes := f.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read media data: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return "", fmt.Errorf("media larger than %d bytes", maxBytes)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("media body is empty")
	}

	ext := extFromURL(raw)
	if ext == "" {
		ext = mimetype.Detect(data).Extension()
	}
	if ext == "" {
		ext = ".bin"
	}
	name := base + ext

	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}
	return name, nil
}
