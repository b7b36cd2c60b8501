package navigation

import (
	"testing"

	"github.com/lehigh-university-libraries/museetour/internal/catalog"
	"github.com/lehigh-university-libraries/museetour/internal/i18n"
	"github.com/lehigh-university-libraries/museetour/internal/models"
	"github.com/lehigh-university-libraries/museetour/internal/qrcode"
	"github.com/lehigh-university-libraries/museetour/internal/scan"
)

type fakeCatalog map[string]string

func (f fakeCatalog) LookupRef(ref string) (string, bool) {
	id, ok := f[ref]
	return id, ok
}

func TestNavigate(t *testing.T) {
	nav := New(fakeCatalog{"mali-empire": "mali-empire", "ife-01": "bronze-ife"})
	resolver := scan.NewResolver([]string{"museum.example"})

	tests := []struct {
		name     string
		payload  string
		expected Outcome
	}{
		{
			name:    "known artwork",
			payload: "https://museum.example/oeuvres/mali-empire",
			expected: Outcome{
				Action: ActionNavigate, Path: "/oeuvres/mali-empire", ArtworkID: "mali-empire",
				MessageKey: i18n.MsgScanDetected,
			},
		},
		{
			name:    "label reference opens its artwork",
			payload: "https://museum.example/oeuvres/ife-01",
			expected: Outcome{
				Action: ActionNavigate, Path: "/oeuvres/bronze-ife", ArtworkID: "bronze-ife",
				MessageKey: i18n.MsgScanDetected,
			},
		},
		{
			name:    "unknown artwork",
			payload: "bronze-ife",
			expected: Outcome{
				Action: ActionNavigate, Path: "/oeuvres", ArtworkID: "bronze-ife",
				MessageKey: i18n.MsgScanNotFound,
			},
		},
		{
			name:     "empty retries",
			payload:  "  ",
			expected: Outcome{Action: ActionStay, Rejection: scan.Empty, Retry: true, MessageKey: i18n.MsgScanRetry},
		},
		{
			name:     "malformed retries",
			payload:  "http://[bad-url",
			expected: Outcome{Action: ActionStay, Rejection: scan.Malformed, Retry: true, MessageKey: i18n.MsgScanRetry},
		},
		{
			name:     "foreign host is unrecognized",
			payload:  "https://evil.example/oeuvres/mali-empire",
			expected: Outcome{Action: ActionStay, Rejection: scan.ForeignHost, MessageKey: i18n.MsgScanUnrecognized},
		},
		{
			name:     "no identifier is unrecognized",
			payload:  "https://museum.example/about",
			expected: Outcome{Action: ActionStay, Rejection: scan.NoIdentifier, MessageKey: i18n.MsgScanUnrecognized},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nav.Navigate(resolver.Resolve(tt.payload))
			if got != tt.expected {
				t.Errorf("Navigate(%q) = %+v, expected %+v", tt.payload, got, tt.expected)
			}
			if got.Navigates() != (tt.expected.Action == ActionNavigate) {
				t.Errorf("Navigates() mismatch for %+v", got)
			}
		})
	}
}

func TestDetailPathEscapes(t *testing.T) {
	if got := DetailPath("mali empire"); got != "/oeuvres/mali%20empire" {
		t.Errorf("DetailPath = %s", got)
	}
}

func TestNavigateGeneratedLabels(t *testing.T) {
	artwork := func(id, ref string) models.Artwork {
		return models.Artwork{
			ID:           id,
			QRCodeRef:    ref,
			Title:        id,
			Descriptions: []models.Description{{Lang: "fr", Text: "Notice."}},
		}
	}
	c, err := catalog.New([]models.Artwork{
		artwork("bronze-ife", "ife-01"),
		artwork("mali-empire", "mali-label"),
		artwork("pharaons-noirs", ""),
	})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}

	const domain = "musee.example.sn"
	resolver := scan.NewResolver([]string{domain})
	nav := New(c)

	for _, a := range c.List() {
		t.Run(a.ID, func(t *testing.T) {
			link, err := qrcode.LinkFor(domain, a.QRRef())
			if err != nil {
				t.Fatalf("LinkFor: %v", err)
			}
			got := nav.Navigate(resolver.Resolve(link))
			expected := Outcome{
				Action:     ActionNavigate,
				Path:       DetailPath(a.ID),
				ArtworkID:  a.ID,
				MessageKey: i18n.MsgScanDetected,
			}
			if got != expected {
				t.Errorf("Label %s = %+v, expected %+v", link, got, expected)
			}
		})
	}
}
