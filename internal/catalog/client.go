package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/museetour/internal/models"
)

// Client reads artworks from a remote museum API exposing /oeuvres
type Client struct {
	BaseURL    string
	APIKey     string
	httpClient *http.Client
}

// NewClient creates a new remote catalog client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		APIKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchArtworks fetches the whole collection
func (c *Client) FetchArtworks(ctx context.Context) ([]models.Artwork, error) {
	var artworks []models.Artwork
	if err := c.get(ctx, "/oeuvres", &artworks); err != nil {
		return nil, err
	}
	return artworks, nil
}

// FetchArtwork fetches a single artwork by ID
func (c *Client) FetchArtwork(ctx context.Context, id string) (models.Artwork, error) {
	var a models.Artwork
	if err := c.get(ctx, "/oeuvres/"+url.PathEscape(id), &a); err != nil {
		return models.Artwork{}, err
	}
	return a, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("catalog API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode catalog response: %w", err)
	}
	return nil
}
