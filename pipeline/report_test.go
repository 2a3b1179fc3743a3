package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"webhub/crawler"
	"webhub/search"
)

func TestFormatReport(t *testing.T) {
	pages := []crawler.FetchedPage{
		{Source: search.SearchResult{Title: "Go", URL: "https://go.dev/"}, Text: "Build simple, secure, scalable systems with Go.\n"},
		{Source: search.SearchResult{URL: "https://slow.example/"}, Err: "navigate https://slow.example/: navigation timeout after 30s", ErrKind: crawler.KindNavigationTimeout},
		{Source: search.SearchResult{Title: "Blank", URL: "https://blank.example/"}},
	}

	want := `Search results for "golang": 2 fetched, 1 failed

[1] Go
URL: https://go.dev/
Build simple, secure, scalable systems with Go.

[2] https://slow.example/
URL: https://slow.example/
Error (navigation_timeout): navigate https://slow.example/: navigation timeout after 30s

[3] Blank
URL: https://blank.example/
(page has no visible text)
`
	assert.Equal(t, want, FormatReport("golang", pages))
}

func TestNoResultsMessage(t *testing.T) {
	assert.Equal(t, `No results found for "rare query".`, NoResultsMessage("rare query"))
}
