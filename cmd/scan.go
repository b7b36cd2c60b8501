package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/museetour/internal/catalog"
	"github.com/lehigh-university-libraries/museetour/internal/navigation"
	"github.com/lehigh-university-libraries/museetour/internal/scan"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Work with scanned QR payloads",
	}
	cmd.AddCommand(newScanResolveCmd())
	return cmd
}

type resolveResult struct {
	Payload    string             `json:"payload"`
	Resolution scan.Resolution    `json:"resolution"`
	Outcome    navigation.Outcome `json:"outcome"`
}

func newScanResolveCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve [payload...]",
		Short: "Resolve QR payloads to artwork identifiers",
		Long: `Resolves each payload the way the scanner does and prints the artwork
identifier or the rejection, with the resulting navigation.

Payloads are read one per line from stdin when none are given.`,
		Example: `  museetour scan resolve --allowed-hosts musee.example.sn https://musee.example.sn/oeuvres/mali-empire
  cat payloads.txt | museetour scan resolve --json`,
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

			resolver := scan.NewResolver(cfg.AllowedHosts)
			nav := navigation.New(c)

			payloads := args
			if len(payloads) == 0 {
				payloads, err = readLines(cmd.InOrStdin())
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			for _, p := range payloads {
				res := resolver.Resolve(p)
				r := resolveResult{Payload: p, Resolution: res, Outcome: nav.Navigate(res)}
				if asJSON {
					if err := enc.Encode(r); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintln(out, formatResult(r))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print one JSON object per payload")
	addCatalogFlag(cmd)
	addHostFlags(cmd)
	return cmd
}

func formatResult(r resolveResult) string {
	target := r.Outcome.Path
	if target == "" {
		target = "-"
	}
	if r.Resolution.Resolved() {
		return fmt.Sprintf("%q\tartwork=%s\t%s %s", r.Payload, r.Resolution.ArtworkID, r.Outcome.Action, target)
	}
	return fmt.Sprintf("%q\trejected=%s\t%s %s", r.Payload, r.Resolution.Rejection, r.Outcome.Action, target)
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimRight(scanner.Text(), "\r"); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read payloads: %w", err)
	}
	return lines, nil
}
