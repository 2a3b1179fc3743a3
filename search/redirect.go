package search

import (
	"net/url"
	"strings"
)

// unwrapRedirect returns the destination of a known search-engine click
// tracking link, or u unchanged.
func unwrapRedirect(u *url.URL) *url.URL {
	host := strings.ToLower(u.Hostname())
	var target string

	switch {
	case strings.HasSuffix(host, "duckduckgo.com") && strings.HasPrefix(u.Path, "/l"):
		target = u.Query().Get("uddg")
	case strings.Contains(host, "google.") && u.Path == "/url":
		target = u.Query().Get("q")
		if target == "" {
			target = u.Query().Get("url")
		}
	}

	if target == "" {
		return u
	}
	dest, err := url.Parse(target)
	if err != nil || !dest.IsAbs() {
		return u
	}
	return dest
}
