// Package navigation decides which view follows a scan.
package navigation

import (
	"net/url"

	"github.com/lehigh-university-libraries/museetour/internal/i18n"
	"github.com/lehigh-university-libraries/museetour/internal/scan"
)

// Action tells the client what to do with its current view
type Action string

const (
	// ActionNavigate leaves the scanner for Outcome.Path
	ActionNavigate Action = "navigate"
	// ActionStay keeps the scanner open
	ActionStay Action = "stay"
)

// CollectionPath lists every artwork; it is where unknown artworks land
const CollectionPath = "/oeuvres"

// Outcome is the navigation decision for one resolution
type Outcome struct {
	Action     Action             `json:"action"`
	Path       string             `json:"path,omitempty"`
	ArtworkID  string             `json:"artwork_id,omitempty"`
	Rejection  scan.RejectionKind `json:"rejection,omitempty"`
	Retry      bool               `json:"retry"`
	MessageKey string             `json:"message_key,omitempty"`
}

// Navigates reports whether the outcome leaves the scanning view
func (o Outcome) Navigates() bool {
	return o.Action == ActionNavigate
}

// Lookup is the part of the catalog navigation needs
type Lookup interface {
	// LookupRef maps a label reference or artwork ID to the artwork ID
	LookupRef(ref string) (id string, ok bool)
}

// Navigator turns resolutions into outcomes using the catalog
type Navigator struct {
	artworks Lookup
}

// New returns a Navigator backed by the given catalog
func New(artworks Lookup) *Navigator {
	return &Navigator{artworks: artworks}
}

// DetailPath is the client route for an artwork's page
func DetailPath(id string) string {
	return CollectionPath + "/" + url.PathEscape(id)
}

// Navigate applies the scan policy: read glitches retry silently, codes that
// were read but are unusable get an explicit message, and resolved IDs that
// are missing from the catalog fall back to the collection.
func (n *Navigator) Navigate(res scan.Resolution) Outcome {
	if res.Resolved() {
		if id, ok := n.artworks.LookupRef(res.ArtworkID); ok {
			return Outcome{
				Action:     ActionNavigate,
				Path:       DetailPath(id),
				ArtworkID:  id,
				MessageKey: i18n.MsgScanDetected,
			}
		}
		return Outcome{
			Action:     ActionNavigate,
			Path:       CollectionPath,
			ArtworkID:  res.ArtworkID,
			MessageKey: i18n.MsgScanNotFound,
		}
	}

	switch res.Rejection {
	case scan.Empty, scan.Malformed:
		return Outcome{Action: ActionStay, Rejection: res.Rejection, Retry: true, MessageKey: i18n.MsgScanRetry}
	default:
		return Outcome{Action: ActionStay, Rejection: res.Rejection, MessageKey: i18n.MsgScanUnrecognized}
	}
}
