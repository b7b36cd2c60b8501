package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/museetour/internal/catalog"
	"github.com/lehigh-university-libraries/museetour/internal/config"
	"github.com/lehigh-university-libraries/museetour/internal/i18n"
	"github.com/lehigh-university-libraries/museetour/internal/media"
	"github.com/lehigh-university-libraries/museetour/internal/models"
	"github.com/lehigh-university-libraries/museetour/internal/translation"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and maintain the artwork catalog",
	}
	cmd.AddCommand(newCatalogListCmd())
	cmd.AddCommand(newCatalogValidateCmd())
	cmd.AddCommand(newCatalogExportCmd())
	cmd.AddCommand(newCatalogSyncCmd())
	cmd.AddCommand(newCatalogTranslateCmd())
	cmd.AddCommand(newCatalogMirrorCmd())
	return cmd
}

// loadCatalog loads and validates the catalog selected by --catalog
func loadCatalog(cmd *cobra.Command) (*catalog.Catalog, config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, cfg, err
	}
	artworks, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, cfg, err
	}
	c, err := catalog.New(artworks)
	return c, cfg, err
}

// writeOrPrint writes artworks to path, or to stdout as YAML when path is empty
func writeOrPrint(cmd *cobra.Command, path string, artworks []models.Artwork) error {
	if path == "" {
		return catalog.Encode(cmd.OutOrStdout(), catalog.FormatYAML, artworks)
	}
	return catalog.Write(path, artworks)
}

func newCatalogListCmd() *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the artworks by room",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := loadCatalog(cmd)
			if err != nil {
				return err
			}
			tag := i18n.Negotiate(lang, os.Getenv("LANG"))

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tQR REF\tROOM\tTITLE\tLANGUAGES")
			for _, a := range c.List() {
				v := i18n.Localize(a, tag)
				room := a.Room
				if room == "" {
					room = catalog.UnknownRoom
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.ID, a.QRRef(), room, v.Title, strings.Join(v.Languages, ","))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "", "Language of the titles (fr, en, wo)")
	addCatalogFlag(cmd)
	return cmd
}

func newCatalogValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check catalog files for errors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			out := cmd.OutOrStdout()
			for _, path := range args {
				artworks, err := catalog.Load(path)
				if err == nil {
					err = catalog.Validate(artworks)
				}
				if err != nil {
					failed++
					fmt.Fprintf(out, "%s: invalid\n", path)
					var verr *catalog.ValidationError
					if errors.As(err, &verr) {
						for _, p := range verr.Problems {
							fmt.Fprintf(out, "  - %s\n", p)
						}
					} else {
						fmt.Fprintf(out, "  - %v\n", err)
					}
					continue
				}
				fmt.Fprintf(out, "%s: ok (%d artworks)\n", path, len(artworks))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d catalog files are invalid", failed, len(args))
			}
			return nil
		},
	}
}

func newCatalogExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Convert the catalog to another format",
		Long: `Writes the catalog to --out. The format follows the file extension:
.yaml, .json, .jsonl or .parquet. Without --out the catalog is printed as YAML.`,
		Example: `  museetour catalog export --out oeuvres.parquet
  museetour catalog export --catalog oeuvres.parquet --out oeuvres.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := loadCatalog(cmd)
			if err != nil {
				return err
			}
			return writeOrPrint(cmd, out, c.List())
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file")
	addCatalogFlag(cmd)
	return cmd
}

func newCatalogSyncCmd() *cobra.Command {
	var (
		baseURL string
		apiKey  string
		ids     []string
		out     string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Download the catalog from the museum collection API",
		Long: `Downloads the whole collection, or with --id refreshes only the listed
artworks and merges them into the local catalog.`,
		Example: `  museetour catalog sync --url https://collections.example.sn/api --out oeuvres.yaml
  museetour catalog sync --catalog oeuvres.yaml --id bronze-ife,mali-empire --out oeuvres.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if baseURL == "" {
				baseURL = cfg.RemoteCatalog
			}
			if apiKey == "" {
				apiKey = cfg.RemoteAPIKey
			}
			if baseURL == "" {
				return fmt.Errorf("--url or MUSEE_REMOTE_CATALOG is required")
			}

			client := catalog.NewClient(baseURL, apiKey)
			var artworks []models.Artwork
			if len(ids) == 0 {
				artworks, err = client.FetchArtworks(cmd.Context())
				if err != nil {
					return err
				}
			} else {
				local, err := catalog.Load(cfg.CatalogPath)
				if err != nil {
					return err
				}
				updates := make([]models.Artwork, 0, len(ids))
				for _, id := range ids {
					a, err := client.FetchArtwork(cmd.Context(), id)
					if err != nil {
						return fmt.Errorf("failed to fetch artwork %s: %w", id, err)
					}
					updates = append(updates, a)
				}
				artworks = catalog.Merge(local, updates)
			}
			if err := catalog.Validate(artworks); err != nil {
				return fmt.Errorf("remote catalog is invalid: %w", err)
			}
			slog.Info("Fetched remote catalog", "url", baseURL, "artworks", len(artworks))
			return writeOrPrint(cmd, out, artworks)
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "", "Base URL of the collection API (default from MUSEE_REMOTE_CATALOG)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Bearer token for the collection API (default from MUSEE_REMOTE_API_KEY)")
	cmd.Flags().StringSliceVar(&ids, "id", nil, "Only refresh these artwork IDs, merged into --catalog")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file")
	addCatalogFlag(cmd)
	return cmd
}

func newCatalogTranslateCmd() *cobra.Command {
	var (
		targets  []string
		provider string
		model    string
		out      string
	)

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Fill missing descriptions with an LLM translation",
		Long: `Adds a description in each target language to every artwork that lacks
one, translating from the French description. Providers: ollama, openai, gemini.`,
		Example: `  museetour catalog translate --to en,wo --out oeuvres.yaml
  museetour catalog translate --provider gemini --to wo --out oeuvres.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cfg, err := loadCatalog(cmd)
			if err != nil {
				return err
			}
			if provider == "" {
				provider = cfg.TranslationProvider
			}
			if model == "" {
				model = cfg.TranslationModel
			}

			svc, err := translation.NewService(translation.Options{
				Provider:  provider,
				Model:     model,
				OllamaURL: cfg.OllamaURL,
				OpenAIKey: cfg.OpenAIKey,
				GeminiKey: cfg.GeminiKey,
			})
			if err != nil {
				return err
			}

			artworks, n, err := svc.TranslateCatalog(cmd.Context(), c.List(), targets)
			if artworks == nil {
				return err
			}
			if err != nil {
				slog.Warn("Some translations failed", "err", err)
			}
			if verr := catalog.Validate(artworks); verr != nil {
				return fmt.Errorf("translated catalog is invalid: %w", verr)
			}
			slog.Info("Translated catalog", "descriptions", n, "model", svc.Model())
			return writeOrPrint(cmd, out, artworks)
		},
	}

	cmd.Flags().StringSliceVar(&targets, "to", []string{"en", "wo"}, "Target languages")
	cmd.Flags().StringVar(&provider, "provider", "", "LLM provider: ollama, openai or gemini (default from TRANSLATION_PROVIDER)")
	cmd.Flags().StringVar(&model, "model", "", "Model name (default depends on provider)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file")
	addCatalogFlag(cmd)
	return cmd
}

func newCatalogMirrorCmd() *cobra.Command {
	var (
		dir string
		out string
	)

	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Download remote media and point the catalog at the local copies",
		Long: `Downloads every remote image, audio, video and 3D model URL of the catalog
into --dir and rewrites the URLs to /media/..., the path serve exposes the
directory on.`,
		Example: `  museetour catalog mirror --catalog remote.yaml --dir ./media --out oeuvres.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cfg, err := loadCatalog(cmd)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MediaDir
			}

			fetcher := media.NewFetcher()
			var failures []error
			total := 0
			artworks := c.List()
			for i, a := range artworks {
				mirrored, n, err := fetcher.Mirror(cmd.Context(), a, dir)
				if err != nil {
					failures = append(failures, err)
				}
				artworks[i] = mirrored
				total += n
			}
			slog.Info("Mirrored media", "dir", dir, "downloaded", total, "failed_artworks", len(failures))

			if err := writeOrPrint(cmd, out, artworks); err != nil {
				return err
			}
			if len(failures) > 0 {
				return fmt.Errorf("media mirroring failed for %d artworks", len(failures))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory to store media in (default from MUSEE_MEDIA_DIR)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output catalog file")
	addCatalogFlag(cmd)
	return cmd
}
