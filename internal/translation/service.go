// Package translation fills missing artwork descriptions with an LLM.
package translation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/lehigh-university-libraries/museetour/internal/gemini"
	"github.com/lehigh-university-libraries/museetour/internal/i18n"
	"github.com/lehigh-university-libraries/museetour/internal/models"
	"github.com/lehigh-university-libraries/museetour/internal/ollama"
	"github.com/lehigh-university-libraries/museetour/internal/openai"
	"github.com/lehigh-university-libraries/museetour/internal/providers"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var (
	ErrNoSource          = errors.New("artwork has no description to translate from")
	ErrAlreadyTranslated = errors.New("artwork already described in target language")
	ErrUnsupportedLang   = errors.New("unsupported target language")
	ErrEmptyTranslation  = errors.New("provider returned an empty translation")
)

// Options selects and configures the provider
type Options struct {
	Provider    string
	Model       string
	OllamaURL   string
	OpenAIKey   string
	GeminiKey   string
	Temperature float64
}

type Service struct {
	provider    providers.Provider
	name        string
	model       string
	temperature float64
}

// NewService builds a Service for the provider named in opts. Empty fields
// fall back to TRANSLATION_PROVIDER and the provider's *_MODEL variable.
func NewService(opts Options) (*Service, error) {
	name := opts.Provider
	if name == "" {
		name = os.Getenv("TRANSLATION_PROVIDER")
	}
	name, err := providers.Normalize(name)
	if err != nil {
		return nil, err
	}

	var p providers.Provider
	switch name {
	case providers.OpenAI:
		p = openai.New(opts.OpenAIKey)
	case providers.Gemini:
		p = gemini.New(opts.GeminiKey)
	default:
		p = ollama.New(opts.OllamaURL)
	}

	model := opts.Model
	if model == "" {
		model = os.Getenv(strings.ToUpper(name) + "_MODEL")
	}
	if model == "" {
		model = providers.DefaultModel(name)
	}
	svc := NewWithProvider(p, model)
	svc.name = name
	if opts.Temperature > 0 {
		svc.temperature = opts.Temperature
	}
	return svc, nil
}

// NewWithProvider wraps an already constructed provider
func NewWithProvider(p providers.Provider, model string) *Service {
	if model == "" {
		model = providers.DefaultModel(providers.Ollama)
	}
	return &Service{
		provider:    p,
		name:        "custom",
		model:       model,
		temperature: 0.2,
	}
}

// Model returns the model used for completions
func (s *Service) Model() string {
	return s.model
}

// Translate produces a description of the artwork in target, using the
// French description as the source, or the first one when there is none.
func (s *Service) Translate(ctx context.Context, artwork models.Artwork, target string) (models.Description, error) {
	tag, err := supportedTag(target)
	if err != nil {
		return models.Description{}, err
	}
	target = i18n.Code(tag)
	if _, ok := artwork.Description(target); ok {
		return models.Description{}, fmt.Errorf("%s (%s): %w", artwork.ID, target, ErrAlreadyTranslated)
	}

	source, ok := artwork.Description(i18n.Code(i18n.Default))
	if !ok {
		if len(artwork.Descriptions) == 0 {
			return models.Description{}, fmt.Errorf("%s: %w", artwork.ID, ErrNoSource)
		}
		source = artwork.Descriptions[0]
	}
	if source.Title == "" {
		source.Title = artwork.Title
	}

	reply, err := s.provider.Complete(ctx, providers.Config{
		Model:       s.model,
		Temperature: s.temperature,
		Prompt:      buildPrompt(artwork, source, tag),
		JSON:        true,
	})
	if err != nil {
		return models.Description{}, fmt.Errorf("failed to translate %s to %s: %w", artwork.ID, target, err)
	}

	desc, err := parseReply(reply)
	if err != nil {
		return models.Description{}, fmt.Errorf("failed to parse translation of %s: %w", artwork.ID, err)
	}
	desc.Lang = target
	slog.Info("Translated description", "artwork_id", artwork.ID, "from", source.Lang, "to", target, "provider", s.name, "model", s.model)
	return desc, nil
}

// TranslateCatalog adds a description in each target language to every
// artwork missing one. Artworks that fail are left untouched and reported in
// the joined error; the returned slice always holds every artwork.
func (s *Service) TranslateCatalog(ctx context.Context, artworks []models.Artwork, targets []string) ([]models.Artwork, int, error) {
	out := make([]models.Artwork, len(artworks))
	translated := 0
	var errs []error

	for i, a := range artworks {
		a.Descriptions = append([]models.Description(nil), a.Descriptions...)
		for _, target := range targets {
			if err := ctx.Err(); err != nil {
				return nil, translated, err
			}
			desc, err := s.Translate(ctx, a, target)
			if errors.Is(err, ErrAlreadyTranslated) {
				continue
			}
			if err != nil {
				slog.Warn("Skipping translation", "artwork_id", a.ID, "lang", target, "err", err)
				errs = append(errs, err)
				continue
			}
			a.Descriptions = append(a.Descriptions, desc)
			translated++
		}
		out[i] = a
	}
	return out, translated, errors.Join(errs...)
}

func supportedTag(code string) (language.Tag, error) {
	tag, err := language.Parse(code)
	if err != nil {
		return language.Und, fmt.Errorf("%w: %q", ErrUnsupportedLang, code)
	}
	base, _ := tag.Base()
	for _, s := range i18n.Supported {
		if b, _ := s.Base(); b == base {
			return s, nil
		}
	}
	return language.Und, fmt.Errorf("%w: %q", ErrUnsupportedLang, code)
}

func languageName(tag language.Tag) string {
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return i18n.Code(tag)
}

func buildPrompt(artwork models.Artwork, source models.Description, target language.Tag) string {
	sourceTag := language.Make(source.Lang)
	return fmt.Sprintf(`You are a museum curator and professional translator specialised in African art and history.

Translate the following museum label from %s to %s. Keep proper nouns, dates and place names unchanged. Do not add information that is not in the source.

Artwork: %s
Author: %s
Date: %s

TITLE:
%s

TEXT:
%s

HISTORY:
%s

Respond with ONLY a JSON object in the following format:

{
  "title": "translated title",
  "text": "translated text",
  "history": "translated history, or an empty string if there is none"
}`,
		languageName(sourceTag), languageName(target),
		artwork.ID, artwork.Author, artwork.Date,
		source.Title, source.Text, source.History,
	)
}

// parseReply extracts the translated fields, tolerating markdown code fences
func parseReply(reply string) (models.Description, error) {
	reply = strings.TrimSpace(reply)
	reply = strings.TrimPrefix(reply, "```json")
	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSuffix(reply, "```")
	reply = strings.TrimSpace(reply)

	var result struct {
		Title   string `json:"title"`
		Text    string `json:"text"`
		History string `json:"history"`
	}
	if err := json.Unmarshal([]byte(reply), &result); err != nil {
		return models.Description{}, err
	}
	if strings.TrimSpace(result.Text) == "" {
		return models.Description{}, ErrEmptyTranslation
	}
	return models.Description{
		Title:   strings.TrimSpace(result.Title),
		Text:    strings.TrimSpace(result.Text),
		History: strings.TrimSpace(result.History),
	}, nil
}
