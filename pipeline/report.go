package pipeline

import (
	"fmt"
	"strings"

	"webhub/crawler"
)

func NoResultsMessage(query string) string {
	return fmt.Sprintf("No results found for %q.", query)
}

// FormatReport renders one entry per page, failed ones included, so partial
// success stays visible to the caller.
func FormatReport(query string, pages []crawler.FetchedPage) string {
	failed := 0
	for _, p := range pages {
		if !p.OK() {
			failed++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search results for %q: %d fetched, %d failed\n", query, len(pages)-failed, failed)

	for i, p := range pages {
		title := p.Source.Title
		if title == "" {
			title = p.Source.URL
		}
		fmt.Fprintf(&b, "\n[%d] %s\nURL: %s\n", i+1, title, p.Source.URL)

		switch {
		case !p.OK():
			fmt.Fprintf(&b, "Error (%s): %s\n", p.ErrKind, p.Err)
		case strings.TrimSpace(p.Text) == "":
			b.WriteString("(page has no visible text)\n")
		default:
			b.WriteString(strings.TrimRight(p.Text, "\n"))
			b.WriteString("\n")
		}
	}
	return b.String()
}
