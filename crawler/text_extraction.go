package crawler

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Mode selects how page text is produced.
type Mode string

const (
	// ModeText reads the body's rendered innerText.
	ModeText        Mode = "text"
	ModeReadability Mode = "readability"
	ModeTrafilatura Mode = "trafilatura"
	ModeMarkdown    Mode = "markdown"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeText, nil
	case ModeText, ModeReadability, ModeTrafilatura, ModeMarkdown:
		return m, nil
	default:
		return "", fmt.Errorf("unknown content mode %q", s)
	}
}

// ExtractText turns a rendered HTML snapshot into text for the snapshot modes.
func ExtractText(mode Mode, body, pageURL string) (string, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}

	switch mode {
	case ModeReadability:
		return extractWithReadability(body, parsedURL)
	case ModeTrafilatura:
		result, err := extractWithTrafilatura(body, parsedURL)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(result.ContentText), nil
	case ModeMarkdown:
		return extractMarkdown(body, parsedURL)
	default:
		return "", fmt.Errorf("mode %q does not use a snapshot", mode)
	}
}

func extractWithReadability(body string, pageURL *url.URL) (string, error) {
	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(body), pageURL)
	if err != nil {
		return "", fmt.Errorf("readability: %w", err)
	}
	return strings.TrimSpace(article.TextContent), nil
}

func extractWithTrafilatura(body string, pageURL *url.URL) (*trafilatura.ExtractResult, error) {
	opts := trafilatura.Options{
		OriginalURL: pageURL,
	}
	result, err := trafilatura.Extract(strings.NewReader(body), opts)
	if err != nil {
		return nil, fmt.Errorf("trafilatura: %w", err)
	}
	return result, nil
}

// extractMarkdown converts the main content found by trafilatura to
// markdown, or the whole body without page chrome when none is found.
func extractMarkdown(body string, pageURL *url.URL) (string, error) {
	var content string
	if result, err := extractWithTrafilatura(body, pageURL); err == nil && result.ContentNode != nil {
		content, err = RenderNodeToString(result.ContentNode)
		if err != nil {
			return "", err
		}
	} else {
		content, err = stripChrome(body)
		if err != nil {
			return "", err
		}
	}

	md, err := htmltomarkdown.ConvertString(content)
	if err != nil {
		return "", fmt.Errorf("html-to-markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}

func stripChrome(body string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, nav, header, footer, aside").Remove()
	return doc.Find("body").Html()
}

func RenderNodeToString(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
