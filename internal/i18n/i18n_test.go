package i18n

import (
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/museetour/internal/models"
	"golang.org/x/text/language"
)

func TestNegotiate(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		accept   string
		expected string
	}{
		{"defaults to french", "", "", "fr"},
		{"explicit wolof", "wo", "en-US", "wo"},
		{"explicit regional english", "en-GB", "", "en"},
		{"unsupported explicit falls through to header", "de", "en-US,en;q=0.9", "en"},
		{"accept language order", "", "fr-CA,en;q=0.8", "fr"},
		{"unsupported header", "", "de-DE", "fr"},
		{"garbage", "%%%", "not a header;;", "fr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Code(Negotiate(tt.explicit, tt.accept))
			if got != tt.expected {
				t.Errorf("Negotiate(%q, %q) = %s, expected %s", tt.explicit, tt.accept, got, tt.expected)
			}
		})
	}
}

func TestMessage(t *testing.T) {
	if got := Message(English, MsgScanUnrecognized); got != "This QR code is not recognized by the museum." {
		t.Errorf("Unexpected english message %q", got)
	}
	if got := Message(French, MsgCameraDenied); !strings.HasPrefix(got, "Accès à la caméra refusé") {
		t.Errorf("Unexpected french message %q", got)
	}
	if got := Message(Wolof, MsgScanNotFound); got != messages[MsgScanNotFound][Wolof] {
		t.Errorf("Unexpected wolof message %q", got)
	}
}

func TestMessagesCoverAllLanguages(t *testing.T) {
	for key, byLang := range messages {
		for _, tag := range Supported {
			if byLang[tag] == "" {
				t.Errorf("message %s missing %s", key, tag)
			}
		}
	}
}

func TestCatalogServesEveryMessage(t *testing.T) {
	for key, byLang := range messages {
		for tag, expected := range byLang {
			if got := Message(tag, key); got != expected {
				t.Errorf("Message(%s, %s) = %q, expected %q", tag, key, got, expected)
			}
		}
	}
}

func TestLocalize(t *testing.T) {
	a := models.Artwork{
		ID:       "mali-empire",
		Title:    "Empire du Mali",
		AudioURL: "/audio/mali-empire.mp3",
		Descriptions: []models.Description{
			{Lang: "fr", Title: "Empire du Mali", Text: "Texte français"},
			{Lang: "en", Title: "Mali Empire", Text: "English text", AudioURL: "/audio/mali-empire-en.mp3"},
		},
	}

	tests := []struct {
		tag      language.Tag
		lang     string
		title    string
		text     string
		audioURL string
	}{
		{English, "en", "Mali Empire", "English text", "/audio/mali-empire-en.mp3"},
		{French, "fr", "Empire du Mali", "Texte français", "/audio/mali-empire.mp3"},
		{Wolof, "fr", "Empire du Mali", "Texte français", "/audio/mali-empire.mp3"},
	}

	for _, tt := range tests {
		view := Localize(a, tt.tag)
		if view.Lang != tt.lang || view.Title != tt.title || view.Description != tt.text || view.AudioURL != tt.audioURL {
			t.Errorf("Localize(%s) = %+v", tt.tag, view)
		}
		if len(view.Languages) != 2 {
			t.Errorf("Expected 2 languages, got %v", view.Languages)
		}
	}
}

func TestLocalizeFallsBackToFirstDescription(t *testing.T) {
	a := models.Artwork{
		ID:    "bronze-ife",
		Title: "Bronzes d'Ifé",
		Descriptions: []models.Description{
			{Lang: "en", Text: "Only english"},
		},
	}
	view := Localize(a, Wolof)
	if view.Lang != "en" || view.Description != "Only english" || view.Title != "Bronzes d'Ifé" {
		t.Errorf("Unexpected view %+v", view)
	}

	empty := Localize(models.Artwork{ID: "x", Title: "X"}, English)
	if empty.Lang != "fr" || empty.Description != "" {
		t.Errorf("Unexpected view %+v", empty)
	}
}
