// Package scan turns the text decoded from a QR code into an artwork identifier.
package scan

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Marker is the path segment that precedes an artwork identifier in a label URL
const Marker = "/oeuvres/"

// RejectionKind classifies why a payload could not be resolved
type RejectionKind int

const (
	// Empty means the payload was empty or whitespace only
	Empty RejectionKind = iota + 1
	// ForeignHost means the payload is a URL for a host outside the allow-list
	ForeignHost
	// NoIdentifier means the payload parsed but carried no identifier
	NoIdentifier
	// Malformed means the payload is neither a bare token nor a valid URL
	Malformed
)

var (
	ErrEmpty        = errors.New("scan payload is empty")
	ErrForeignHost  = errors.New("scan payload points to a foreign host")
	ErrNoIdentifier = errors.New("scan payload has no artwork identifier")
	ErrMalformed    = errors.New("scan payload is malformed")
)

func (k RejectionKind) String() string {
	switch k {
	case Empty:
		return "empty"
	case ForeignHost:
		return "foreign_host"
	case NoIdentifier:
		return "no_identifier"
	case Malformed:
		return "malformed"
	default:
		return ""
	}
}

// MarshalText renders the kind as its snake_case name
func (k RejectionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a snake_case kind name
func (k *RejectionKind) UnmarshalText(text []byte) error {
	for _, kind := range []RejectionKind{Empty, ForeignHost, NoIdentifier, Malformed} {
		if kind.String() == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown rejection kind %q", text)
}

// Resolution is the outcome of resolving one payload: an artwork ID or a rejection
type Resolution struct {
	ArtworkID string        `json:"artwork_id,omitempty"`
	Rejection RejectionKind `json:"rejection,omitempty"`
}

// Resolved reports whether the payload yielded an artwork ID
func (r Resolution) Resolved() bool {
	return r.Rejection == 0 && r.ArtworkID != ""
}

// Err maps a rejection onto its sentinel error; nil when resolved
func (r Resolution) Err() error {
	switch r.Rejection {
	case Empty:
		return ErrEmpty
	case ForeignHost:
		return ErrForeignHost
	case NoIdentifier:
		return ErrNoIdentifier
	case Malformed:
		return ErrMalformed
	}
	return nil
}

func resolved(id string) Resolution { return Resolution{ArtworkID: id} }
func rejected(kind RejectionKind) Resolution { return Resolution{Rejection: kind} }

// Resolver extracts artwork IDs from scanned payloads. It holds no mutable
// state once built and is safe for concurrent use.
type Resolver struct {
	allowedHosts map[string]struct{}
}

// NewResolver returns a Resolver accepting URLs for the given hosts.
// An empty list accepts any host.
func NewResolver(allowedHosts []string) *Resolver {
	r := &Resolver{allowedHosts: make(map[string]struct{}, len(allowedHosts))}
	for _, h := range allowedHosts {
		h = normalizeHost(h)
		if h != "" {
			r.allowedHosts[h] = struct{}{}
		}
	}
	return r
}

// AllowedHosts returns the normalized allow-list
func (r *Resolver) AllowedHosts() []string {
	hosts := make([]string, 0, len(r.allowedHosts))
	for h := range r.allowedHosts {
		hosts = append(hosts, h)
	}
	return hosts
}

// Resolve converts a scanned payload into a Resolution. It never panics and
// performs no I/O; whether the ID exists in the catalog is checked later.
func (r *Resolver) Resolve(payload string) Resolution {
	p := strings.TrimSpace(payload)
	if p == "" {
		return rejected(Empty)
	}

	var candidate string
	if strings.Contains(p, "://") {
		u, err := url.Parse(p)
		if err != nil || !isWebScheme(u.Scheme) || u.Hostname() == "" {
			return rejected(Malformed)
		}
		if !r.hostAllowed(u.Hostname()) {
			return rejected(ForeignHost)
		}
		// split before decoding so %2F and %3F stay inside the segment
		rest, ok := afterMarker(u.EscapedPath())
		if !ok {
			return rejected(NoIdentifier)
		}
		segment, ok := unescapeSegment(cut(rest, "/"))
		if !ok {
			return rejected(Malformed)
		}
		candidate = segment
	} else {
		rel := p
		if strings.HasPrefix(rel, Marker[1:]) {
			rel = "/" + rel
		}
		if rest, ok := afterMarker(rel); ok {
			segment, ok := unescapeSegment(cut(rest, "/?#"))
			if !ok {
				return rejected(Malformed)
			}
			candidate = segment
		} else {
			candidate = p
		}
	}

	candidate = strings.TrimFunc(candidate, func(r rune) bool {
		return r == '/' || unicode.IsSpace(r)
	})
	if candidate == "" {
		return rejected(NoIdentifier)
	}
	if strings.Contains(candidate, "/") || !utf8.ValidString(candidate) {
		return rejected(Malformed)
	}
	return resolved(candidate)
}

// unescapeSegment decodes one escaped path segment. Segments that decode to
// a separator or to invalid UTF-8 are refused.
func unescapeSegment(raw string) (string, bool) {
	s, err := url.PathUnescape(raw)
	if err != nil || strings.ContainsAny(s, "/?") || !utf8.ValidString(s) {
		return "", false
	}
	return s, true
}

func (r *Resolver) hostAllowed(host string) bool {
	if len(r.allowedHosts) == 0 {
		return true
	}
	_, ok := r.allowedHosts[normalizeHost(host)]
	return ok
}

func afterMarker(path string) (string, bool) {
	i := strings.Index(path, Marker)
	if i < 0 {
		return "", false
	}
	return path[i+len(Marker):], true
}

// cut returns s up to the first byte found in seps
func cut(s, seps string) string {
	if i := strings.IndexAny(s, seps); i >= 0 {
		return s[:i]
	}
	return s
}

func isWebScheme(scheme string) bool {
	switch strings.ToLower(scheme) {
	case "http", "https":
		return true
	}
	return false
}

// normalizeHost lowercases a host and drops any port or URL decoration
func normalizeHost(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	if strings.Contains(h, "://") {
		if u, err := url.Parse(h); err == nil {
			return u.Hostname()
		}
	}
	if strings.HasPrefix(h, "[") {
		if i := strings.Index(h, "]"); i > 0 {
			return h[1:i]
		}
	}
	if i := strings.LastIndex(h, ":"); i >= 0 && strings.Count(h, ":") == 1 {
		h = h[:i]
	}
	return strings.TrimSuffix(h, "/")
}
