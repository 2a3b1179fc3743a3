package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"webhub/browser"
	"webhub/search"
)

// Per-item failure kinds recorded on FetchedPage.
const (
	KindNavigationTimeout = "navigation_timeout"
	KindNavigationFailed  = "navigation_failed"
	KindExtractionFault   = "extraction_fault"
)

// FetchedPage is the outcome of fetching one search result. Err is set
// instead of Text when the fetch failed.
type FetchedPage struct {
	Source    search.SearchResult `json:"source"`
	Text      string              `json:"text,omitempty"`
	Truncated bool                `json:"truncated,omitempty"`
	Err       string              `json:"error,omitempty"`
	ErrKind   string              `json:"error_kind,omitempty"`
}

func (p FetchedPage) OK() bool {
	return p.Err == ""
}

type FetchOptions struct {
	Timeout time.Duration
	Budget  int
	Mode    Mode
	Settle  browser.SettleOptions
}

type Fetcher struct {
	logger *zap.Logger
}

func NewFetcher(logger *zap.Logger) *Fetcher {
	return &Fetcher{logger: logger}
}

// Fetch loads target in sess and returns its text. It never fails: every
// navigation or extraction fault is recorded on the returned page.
func (f *Fetcher) Fetch(ctx context.Context, sess browser.Session, target search.SearchResult, opts FetchOptions) FetchedPage {
	logger := Logger(ctx, f.logger).With(zap.String("url", target.URL))
	start := time.Now()

	text, err := f.scrape(ctx, sess, target.URL, opts)
	if err != nil {
		kind := classify(err)
		logger.Warn("fetch failed",
			zap.String("kind", kind),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return FetchedPage{Source: target, Err: err.Error(), ErrKind: kind}
	}

	text, truncated := Truncate(text, opts.Budget)
	logger.Info("page fetched",
		zap.String("mode", string(opts.Mode)),
		zap.Int("text_length", len(text)),
		zap.Bool("truncated", truncated),
		zap.Duration("elapsed", time.Since(start)))

	return FetchedPage{Source: target, Text: text, Truncated: truncated}
}

func (f *Fetcher) scrape(ctx context.Context, sess browser.Session, url string, opts FetchOptions) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", browser.ErrExtraction, r)
		}
	}()

	if err := sess.Navigate(ctx, url, opts.Timeout); err != nil {
		return "", err
	}
	if err := sess.Settle(ctx, opts.Settle); err != nil {
		return "", err
	}

	if opts.Mode == ModeText || opts.Mode == "" {
		return sess.BodyText(ctx, opts.Timeout)
	}

	page, err := sess.Snapshot(ctx, opts.Timeout)
	if err != nil {
		return "", err
	}
	if page.URL == "" {
		page.URL = url
	}
	text, err = ExtractText(opts.Mode, page.HTML, page.URL)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", browser.ErrExtraction, opts.Mode, err)
	}
	return text, nil
}

func classify(err error) string {
	switch {
	case errors.Is(err, browser.ErrNavigationTimeout):
		return KindNavigationTimeout
	case errors.Is(err, browser.ErrNavigationFailed):
		return KindNavigationFailed
	default:
		return KindExtractionFault
	}
}
