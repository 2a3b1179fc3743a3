package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

var allowedSchemes = []string{"http", "https"}

// ValidateURL checks that raw is an absolute http(s) URL with a host and
// returns its normalized form.
func ValidateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("url must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if !slices.Contains(allowedSchemes, strings.ToLower(u.Scheme)) || u.Host == "" {
		return "", fmt.Errorf("url must be an absolute http(s) URL, got %q", raw)
	}
	return u.String(), nil
}
