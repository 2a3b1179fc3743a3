package search

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

var errIncomplete = errors.New("element lacks title or link")

type Extractor struct {
	logger     *zap.Logger
	strategies []Strategy
}

func NewExtractor(logger *zap.Logger, strategies []Strategy) *Extractor {
	if strategies == nil {
		strategies = DefaultStrategies()
	}
	return &Extractor{
		logger:     logger,
		strategies: strategies,
	}
}

// Extract parses a rendered results page and collects at most limit results.
// An empty slice means the page matched none of the strategies.
func (e *Extractor) Extract(pageURL, html string, limit int) ([]SearchResult, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}
	return e.ExtractDocument(doc, base, limit), nil
}

func (e *Extractor) ExtractDocument(doc *goquery.Document, base *url.URL, limit int) []SearchResult {
	var results []SearchResult
	if limit <= 0 {
		return results
	}

	for _, strategy := range e.strategies {
		before := len(results)
		doc.Find(strategy.Selector).EachWithBreak(func(i int, s *goquery.Selection) bool {
			result, err := strategy.read(s, base)
			switch {
			case errors.Is(err, errIncomplete):
				return true
			case err != nil:
				e.logger.Warn("skipping malformed result element",
					zap.String("engine", strategy.Engine),
					zap.Int("index", i),
					zap.Error(err))
				return true
			}
			results = append(results, result)
			return len(results) < limit
		})

		if found := len(results) - before; found > 0 {
			e.logger.Debug("selector strategy matched",
				zap.String("engine", strategy.Engine),
				zap.String("selector", strategy.Selector),
				zap.Int("results", found))
		}
		if len(results) >= limit {
			break
		}
	}

	e.logger.Info("Successfully extracted links",
		zap.String("page", base.String()),
		zap.Int("total_links", len(results)))
	for i, r := range results {
		if i >= 3 {
			break
		}
		e.logger.Debug("Extracted search result",
			zap.String("url", r.URL),
			zap.String("title", r.Title))
	}

	return results
}

// read converts one matched element. A panic while reading a node is
// reported as an error so that sibling elements are still processed.
func (s Strategy) read(sel *goquery.Selection, base *url.URL) (result SearchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("element fault: %v", r)
		}
	}()

	href, _ := sel.Attr("href")
	href = strings.TrimSpace(href)

	titleSel := sel
	if s.TitleSelector != "" {
		titleSel = sel.Find(s.TitleSelector).First()
	}
	title := strings.Join(strings.Fields(titleSel.Text()), " ")

	if href == "" || title == "" {
		return SearchResult{}, errIncomplete
	}

	u, err := base.Parse(href)
	if err != nil {
		return SearchResult{}, fmt.Errorf("resolve href %q: %w", href, err)
	}
	u = unwrapRedirect(u)
	if u.Scheme != "http" && u.Scheme != "https" {
		return SearchResult{}, errIncomplete
	}

	return SearchResult{
		Title:  title,
		URL:    u.String(),
		Engine: s.Engine,
	}, nil
}
