// Package qrcode produces the labels hung next to each artwork.
package qrcode

import (
	"fmt"
	"net/url"
	"strings"

	goqrcode "github.com/skip2/go-qrcode"

	"github.com/lehigh-university-libraries/museetour/internal/scan"
)

// DefaultSize is the PNG edge length in pixels
const DefaultSize = 512

// LinkFor returns the URL encoded on an artwork's label. The scan resolver
// maps it back to ref when domain is an allowed host.
func LinkFor(domain, ref string) (string, error) {
	domain = strings.TrimSpace(domain)
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.TrimRight(domain, "/")
	if domain == "" {
		return "", fmt.Errorf("public domain is required to build QR links")
	}
	if strings.ContainsAny(domain, "/?#") {
		return "", fmt.Errorf("invalid public domain %q", domain)
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("artwork reference is required")
	}
	return "https://" + domain + strings.TrimSuffix(scan.Marker, "/") + "/" + url.PathEscape(ref), nil
}

// PNG encodes content as a QR code image with high error recovery
func PNG(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	png, err := goqrcode.Encode(content, goqrcode.High, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return png, nil
}

// ASCII renders content as a QR code made of block characters for terminals
func ASCII(content string) (string, error) {
	q, err := goqrcode.New(content, goqrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR code: %w", err)
	}
	return q.ToSmallString(false), nil
}
