package catalog

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/museetour/internal/models"
	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

// Format is a supported catalog file encoding
type Format string

const (
	FormatYAML    Format = "yaml"
	FormatJSON    Format = "json"
	FormatJSONL   Format = "jsonl"
	FormatParquet Format = "parquet"
)

// FormatFromPath detects the catalog format from a file extension
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	case ".parquet":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unsupported catalog format: %q (supported: .yaml, .json, .jsonl, .parquet)", ext)
	}
}

// Seed returns the artworks bundled with the binary
func Seed() ([]models.Artwork, error) {
	return Decode(bytes.NewReader(seedYAML), FormatYAML)
}

// Load reads artworks from a file, picking the decoder by extension.
// An empty path loads the bundled seed catalog.
func Load(path string) ([]models.Artwork, error) {
	if path == "" {
		slog.Debug("No catalog path configured, using bundled seed")
		return Seed()
	}

	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat catalog file: %w", err)
	}
	slog.Debug("Loading catalog", "path", path, "format", format, "size_bytes", info.Size())

	if format == FormatParquet {
		return readParquet(file, info.Size())
	}
	return Decode(file, format)
}

// Decode reads artworks from r in the given format
func Decode(r io.Reader, format Format) ([]models.Artwork, error) {
	switch format {
	case FormatYAML:
		var artworks []models.Artwork
		if err := yaml.NewDecoder(r).Decode(&artworks); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse YAML catalog: %w", err)
		}
		return artworks, nil
	case FormatJSON:
		var artworks []models.Artwork
		if err := json.NewDecoder(r).Decode(&artworks); err != nil {
			return nil, fmt.Errorf("failed to parse JSON catalog: %w", err)
		}
		return artworks, nil
	case FormatJSONL:
		return readJSONL(r)
	case FormatParquet:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet catalog: %w", err)
		}
		return readParquet(bytes.NewReader(data), int64(len(data)))
	default:
		return nil, fmt.Errorf("unsupported catalog format: %q", format)
	}
}

func readJSONL(r io.Reader) ([]models.Artwork, error) {
	var artworks []models.Artwork
	scanner := bufio.NewScanner(r)

	// descriptions can make for long lines
	const maxCapacity = 4 * 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var a models.Artwork
		if err := json.Unmarshal(line, &a); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		artworks = append(artworks, a)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading catalog: %w", err)
	}
	return artworks, nil
}

func readParquet(r io.ReaderAt, size int64) ([]models.Artwork, error) {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}
	slog.Debug("Parquet catalog opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[models.Artwork](pf)
	defer reader.Close()

	artworks := make([]models.Artwork, 0, pf.NumRows())
	rows := make([]models.Artwork, 64)
	for {
		n, err := reader.Read(rows)
		artworks = append(artworks, rows[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
		if n == 0 {
			break
		}
	}
	return artworks, nil
}

// Write saves artworks to path, picking the encoder by extension
func Write(path string, artworks []models.Artwork) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create catalog file: %w", err)
	}

	if err := Encode(file, format, artworks); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close catalog file: %w", err)
	}

	slog.Info("Catalog written", "path", path, "format", format, "artworks", len(artworks))
	return nil
}

// Encode writes artworks to w in the given format
func Encode(w io.Writer, format Format, artworks []models.Artwork) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(artworks); err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(artworks); err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return nil
	case FormatJSONL:
		enc := json.NewEncoder(w)
		for i := range artworks {
			if err := enc.Encode(&artworks[i]); err != nil {
				return fmt.Errorf("failed to marshal artwork %s: %w", artworks[i].ID, err)
			}
		}
		return nil
	case FormatParquet:
		writer := parquet.NewGenericWriter[models.Artwork](w)
		if _, err := writer.Write(artworks); err != nil {
			return fmt.Errorf("failed to write parquet rows: %w", err)
		}
		if err := writer.Close(); err != nil {
			return fmt.Errorf("failed to close parquet writer: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported catalog format: %q", format)
	}
}
