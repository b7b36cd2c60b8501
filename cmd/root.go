package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/museetour/internal/config"
)

func NewRootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "museetour",
		Short: "Virtual museum tour server with QR code artwork lookup",
		Long: `Museetour serves the virtual tour of the museum and resolves the QR codes
hung next to each artwork.

It includes the web API used by the tour, a scanner session API, and tools
to validate, translate, mirror and label the artwork catalog.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			if logLevel == "" {
				logLevel = os.Getenv("MUSEE_LOG_LEVEL")
			}
			if logLevel == "" {
				logLevel = "info"
			}
			level, err := config.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (default from MUSEE_LOG_LEVEL)")

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newQRCodeCmd())
	cmd.AddCommand(newCatalogCmd())

	return cmd
}

// loadConfig reads the environment, then applies any flags set on cmd
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("catalog") {
		cfg.CatalogPath, _ = flags.GetString("catalog")
	}
	if flags.Changed("allowed-hosts") {
		cfg.AllowedHosts, _ = flags.GetStringSlice("allowed-hosts")
		if !flags.Changed("domain") && os.Getenv("MUSEE_PUBLIC_DOMAIN") == "" && len(cfg.AllowedHosts) > 0 {
			cfg.PublicDomain = cfg.AllowedHosts[0]
		}
	}
	if flags.Changed("domain") {
		cfg.PublicDomain, _ = flags.GetString("domain")
	}
	return cfg, nil
}

// addCatalogFlag registers the shared --catalog flag
func addCatalogFlag(cmd *cobra.Command) {
	cmd.Flags().String("catalog", "", "Catalog file (.yaml, .json, .jsonl or .parquet); defaults to MUSEE_CATALOG, then the built-in catalog")
}

// addHostFlags registers the shared --allowed-hosts and --domain flags
func addHostFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("allowed-hosts", nil, "Hosts whose QR links are accepted (default from MUSEE_ALLOWED_HOSTS)")
	cmd.Flags().String("domain", "", "Public domain encoded in QR links (default from MUSEE_PUBLIC_DOMAIN or the first allowed host)")
}
