package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/museetour/internal/catalog"
	"github.com/lehigh-university-libraries/museetour/internal/models"
	"github.com/lehigh-university-libraries/museetour/internal/qrcode"
)

func newQRCodeCmd() *cobra.Command {
	var (
		outDir string
		size   int
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "qrcode [artwork-id...]",
		Short: "Generate the QR code labels for artworks",
		Long: `Generates the QR code printed next to each artwork. The code encodes
https://{domain}/oeuvres/{ref}, which the scanner resolves back to the artwork.

Without --out the codes are drawn in the terminal.`,
		Example: `  museetour qrcode mali-empire --domain musee.example.sn
  museetour qrcode --all --out ./labels --size 1024`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			artworks, err := catalog.Load(cfg.CatalogPath)
			if err != nil {
				return err
			}
			c, err := catalog.New(artworks)
			if err != nil {
				return err
			}

			var selected []models.Artwork
			if all {
				selected = c.List()
			} else {
				if len(args) == 0 {
					return fmt.Errorf("give at least one artwork id, or --all")
				}
				for _, id := range args {
					a, err := c.Get(id)
					if err != nil {
						return fmt.Errorf("%s: %w", id, err)
					}
					selected = append(selected, a)
				}
			}

			if outDir != "" {
				if err := os.MkdirAll(outDir, 0755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			for _, a := range selected {
				link, err := qrcode.LinkFor(cfg.PublicDomain, a.QRRef())
				if err != nil {
					return err
				}

				if outDir == "" {
					art, err := qrcode.ASCII(link)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s  %s\n%s\n", a.ID, link, art)
					continue
				}

				png, err := qrcode.PNG(link, size)
				if err != nil {
					return err
				}
				path := filepath.Join(outDir, a.ID+".png")
				if err := os.WriteFile(path, png, 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", path, err)
				}
				slog.Info("Wrote QR code", "artwork_id", a.ID, "link", link, "path", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory to write PNG files to")
	cmd.Flags().IntVar(&size, "size", qrcode.DefaultSize, "PNG size in pixels")
	cmd.Flags().BoolVar(&all, "all", false, "Generate codes for every artwork in the catalog")
	addCatalogFlag(cmd)
	addHostFlags(cmd)
	return cmd
}
