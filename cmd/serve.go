package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/museetour/internal/catalog"
	"github.com/lehigh-university-libraries/museetour/internal/handlers"
	"github.com/lehigh-university-libraries/museetour/internal/navigation"
	"github.com/lehigh-university-libraries/museetour/internal/scan"
	"github.com/lehigh-university-libraries/museetour/internal/storage"
)

func newServeCmd() *cobra.Command {
	var (
		port       string
		staticDir  string
		mediaDir   string
		sessionTTL time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the tour web server",
		Long: `Starts the museum tour API and serves the tour's web app.

Scanned QR payloads are only accepted when their host is one of the allowed
hosts. Artworks come from the catalog file, or the built-in catalog.`,
		Example: `  # Start server on default port 8888 with the built-in catalog
  museetour serve --allowed-hosts musee.example.sn

  # Serve a parquet catalog on a custom port
  museetour serve --port 3000 --catalog ./oeuvres.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("port") {
				cfg.Port = port
			}
			if flags.Changed("static-dir") {
				cfg.StaticDir = staticDir
			}
			if flags.Changed("media-dir") {
				cfg.MediaDir = mediaDir
			}
			if flags.Changed("session-ttl") {
				cfg.SessionTTL = sessionTTL
			}

			artworks, err := catalog.Load(cfg.CatalogPath)
			if err != nil {
				return err
			}
			c, err := catalog.New(artworks)
			if err != nil {
				return err
			}
			slog.Info("Catalog loaded", "path", cfg.CatalogPath, "artworks", c.Len(), "rooms", len(c.RoomNames()))

			if len(cfg.AllowedHosts) == 0 {
				slog.Warn("No allowed hosts configured; QR links from any host will be accepted")
			}
			resolver := scan.NewResolver(cfg.AllowedHosts)
			sessions := storage.New(resolver, navigation.New(c), cfg.SessionTTL)

			handler := handlers.New(handlers.Options{
				Catalog:      c,
				Resolver:     resolver,
				Sessions:     sessions,
				StaticDir:    cfg.StaticDir,
				MediaDir:     cfg.MediaDir,
				PublicDomain: cfg.PublicDomain,
				AdminToken:   cfg.AdminToken,
				CatalogPath:  cfg.CatalogPath,
				CORSOrigins:  cfg.CORSOrigins,
			})

			ctx := cmd.Context()
			janitorDone := make(chan struct{})
			go func() {
				defer close(janitorDone)
				sessions.Run(ctx, janitorInterval(cfg.SessionTTL))
			}()

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Museum tour available", "addr", addr, "url", "http://localhost"+addr, "allowed_hosts", resolver.AllowedHosts())
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-ctx.Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				err := server.Shutdown(shutdownCtx)
				<-janitorDone
				if err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				sessions.CloseAll()
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on (default from MUSEE_PORT)")
	cmd.Flags().StringVar(&staticDir, "static-dir", "public", "Directory holding the tour web app")
	cmd.Flags().StringVar(&mediaDir, "media-dir", "media", "Directory of mirrored media served under /media")
	cmd.Flags().DurationVar(&sessionTTL, "session-ttl", storage.DefaultTTL, "Idle time before a scan session is closed")
	addCatalogFlag(cmd)
	addHostFlags(cmd)

	return cmd
}

func janitorInterval(ttl time.Duration) time.Duration {
	interval := ttl / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}
