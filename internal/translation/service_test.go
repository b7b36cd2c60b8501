package translation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/museetour/internal/models"
	"github.com/lehigh-university-libraries/museetour/internal/providers"
)

type fakeProvider struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeProvider) Complete(ctx context.Context, config providers.Config) (string, error) {
	f.prompts = append(f.prompts, config.Prompt)
	return f.reply, f.err
}

func maliEmpire() models.Artwork {
	return models.Artwork{
		ID:     "mali-empire",
		Title:  "Empire du Mali",
		Author: "Anonyme",
		Descriptions: []models.Description{
			{Lang: "fr", Title: "Empire du Mali", Text: "L'Empire du Mali fut fondé par Soundiata Keïta."},
		},
	}
}

func TestTranslate(t *testing.T) {
	fake := &fakeProvider{reply: "```json\n{\"title\": \"Mali Empire\", \"text\": \"The Mali Empire was founded by Sundiata Keita.\", \"history\": \"\"}\n```"}
	svc := NewWithProvider(fake, "test-model")

	desc, err := svc.Translate(context.Background(), maliEmpire(), "en-US")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if desc.Lang != "en" || desc.Title != "Mali Empire" || !strings.HasPrefix(desc.Text, "The Mali Empire") {
		t.Errorf("Unexpected description %+v", desc)
	}
	if len(fake.prompts) != 1 || !strings.Contains(fake.prompts[0], "Soundiata") {
		t.Errorf("Prompt should carry the source text: %v", fake.prompts)
	}
}

func TestTranslateErrors(t *testing.T) {
	tests := []struct {
		name     string
		artwork  models.Artwork
		target   string
		reply    string
		provErr  error
		expected error
	}{
		{name: "already translated", artwork: maliEmpire(), target: "fr", expected: ErrAlreadyTranslated},
		{name: "unsupported language", artwork: maliEmpire(), target: "de", expected: ErrUnsupportedLang},
		{name: "no source", artwork: models.Artwork{ID: "vide", Title: "Vide"}, target: "en", expected: ErrNoSource},
		{name: "empty translation", artwork: maliEmpire(), target: "wo", reply: `{"title":"x","text":"  "}`, expected: ErrEmptyTranslation},
		{name: "provider failure", artwork: maliEmpire(), target: "en", provErr: errors.New("boom")},
		{name: "not json", artwork: maliEmpire(), target: "en", reply: "Sorry, I cannot do that."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewWithProvider(&fakeProvider{reply: tt.reply, err: tt.provErr}, "")
			_, err := svc.Translate(context.Background(), tt.artwork, tt.target)
			if err == nil {
				t.Fatal("Expected an error")
			}
			if tt.expected != nil && !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestTranslateFallsBackToFirstDescription(t *testing.T) {
	fake := &fakeProvider{reply: `{"title":"Bronzes d'Ifé","text":"Texte"}`}
	a := models.Artwork{
		ID:           "bronze-ife",
		Title:        "Bronzes d'Ifé",
		Descriptions: []models.Description{{Lang: "en", Text: "Ife bronzes were cast in the Yoruba city."}},
	}
	desc, err := NewWithProvider(fake, "").Translate(context.Background(), a, "fr")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if desc.Lang != "fr" || !strings.Contains(fake.prompts[0], "Yoruba") {
		t.Errorf("Unexpected result %+v / %v", desc, fake.prompts)
	}
}

func TestTranslateCatalog(t *testing.T) {
	fake := &fakeProvider{reply: `{"title":"T","text":"Translated"}`}
	svc := NewWithProvider(fake, "")

	complete := maliEmpire()
	complete.ID = "complet"
	complete.Descriptions = append(complete.Descriptions,
		models.Description{Lang: "en", Text: "x"},
		models.Description{Lang: "wo", Text: "y"},
	)
	input := []models.Artwork{maliEmpire(), complete, {ID: "vide", Title: "Vide"}}

	out, n, err := svc.TranslateCatalog(context.Background(), input, []string{"en", "wo"})
	if n != 2 {
		t.Errorf("Expected 2 translations, got %d", n)
	}
	if !errors.Is(err, ErrNoSource) {
		t.Errorf("Expected joined ErrNoSource, got %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("Expected 3 artworks, got %d", len(out))
	}
	if got := out[0].Languages(); strings.Join(got, ",") != "fr,en,wo" {
		t.Errorf("Unexpected languages %v", got)
	}
	if len(input[0].Descriptions) != 1 {
		t.Error("Input artworks must not be modified")
	}
	if len(out[1].Descriptions) != 3 {
		t.Errorf("Complete artwork should be unchanged, got %d descriptions", len(out[1].Descriptions))
	}
}

func TestNewService(t *testing.T) {
	t.Setenv("TRANSLATION_PROVIDER", "")
	t.Setenv("OLLAMA_MODEL", "")
	svc, err := NewService(Options{})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	if svc.name != providers.Ollama || svc.Model() != providers.DefaultModel(providers.Ollama) {
		t.Errorf("Unexpected defaults %s/%s", svc.name, svc.Model())
	}

	svc, err = NewService(Options{Provider: "OpenAI", Model: "gpt-4o"})
	if err != nil || svc.name != providers.OpenAI || svc.Model() != "gpt-4o" {
		t.Errorf("Unexpected service %+v, %v", svc, err)
	}

	if _, err := NewService(Options{Provider: "claude"}); err == nil {
		t.Error("Expected unsupported provider error")
	}
}
