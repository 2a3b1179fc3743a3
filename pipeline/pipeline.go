package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"webhub/browser"
	"webhub/config"
	"webhub/crawler"
	"webhub/search"
)

const acquireAllowance = 30 * time.Second

type Pipeline struct {
	launcher  browser.Launcher
	extractor *search.Extractor
	fetcher   *crawler.Fetcher
	cfg       config.SearchConfig
	logger    *zap.Logger
}

func New(logger *zap.Logger, launcher browser.Launcher, cfg config.SearchConfig) *Pipeline {
	return &Pipeline{
		launcher:  launcher,
		extractor: search.NewExtractor(logger, search.DefaultStrategies()),
		fetcher:   crawler.NewFetcher(logger),
		cfg:       cfg,
		logger:    logger,
	}
}

// WithStrategies replaces the result selector strategies.
func (p *Pipeline) WithStrategies(strategies []search.Strategy) *Pipeline {
	p.extractor = search.NewExtractor(p.logger, strategies)
	return p
}

// NewRequest returns a request for query carrying the configured defaults.
func (p *Pipeline) NewRequest(query string) search.SearchRequest {
	return search.NewSearchRequest(query, p.cfg)
}

// Run searches, fetches every result and returns the formatted report.
func (p *Pipeline) Run(ctx context.Context, req search.SearchRequest) (string, error) {
	pages, err := p.Retrieve(ctx, req)
	if err != nil {
		return "", err
	}
	if len(pages) == 0 {
		return NoResultsMessage(req.Query), nil
	}
	return FormatReport(req.Query, pages), nil
}

// Retrieve returns one FetchedPage per extracted result, in result order.
// An empty slice with a nil error means the search had no results.
func (p *Pipeline) Retrieve(ctx context.Context, req search.SearchRequest) ([]crawler.FetchedPage, error) {
	ctx, _ = crawler.WithInvocationID(ctx)
	logger := crawler.Logger(ctx, p.logger).With(zap.String("query", req.Query))
	start := time.Now()

	if err := req.Validate(); err != nil {
		return nil, &PipelineError{Kind: KindInvalidInput, Err: err}
	}
	mode, err := crawler.ParseMode(req.ContentMode)
	if err != nil {
		return nil, &PipelineError{Kind: KindInvalidInput, Err: err}
	}
	searchURL, err := req.SearchURL()
	if err != nil {
		return nil, &PipelineError{Kind: KindInvalidInput, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, req.Budget())
	defer cancel()

	sess, err := p.launcher.Acquire(ctx)
	if err != nil {
		return nil, &PipelineError{Kind: KindSessionUnavailable, Err: err}
	}
	defer sess.Release()

	settle := browser.SettleOptions{ReadyTimeout: req.ReadyTimeout, Delay: req.SettleDelay}

	logger.Info("Navigating to search", zap.String("url", searchURL))
	results, err := p.searchResults(ctx, sess, searchURL, req, settle)
	if err != nil {
		logger.Error("search page failed", zap.Error(err))
		return nil, &PipelineError{Kind: KindNavigationFailed, Err: err}
	}
	if len(results) == 0 {
		logger.Warn("No results found", zap.String("url", searchURL))
		return []crawler.FetchedPage{}, nil
	}

	opts := crawler.FetchOptions{
		Timeout: req.NavigationTimeout,
		Budget:  req.PerPageByteBudget,
		Mode:    mode,
		Settle:  settle,
	}
	pages := p.fetchAll(ctx, sess, results, opts, req.Concurrency)

	failed := 0
	for _, page := range pages {
		if !page.OK() {
			failed++
		}
	}
	logger.Info("search completed",
		zap.Int("results", len(results)),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)))

	return pages, nil
}

func (p *Pipeline) searchResults(ctx context.Context, sess browser.Session, searchURL string, req search.SearchRequest, settle browser.SettleOptions) ([]search.SearchResult, error) {
	if err := sess.Navigate(ctx, searchURL, req.SearchTimeout); err != nil {
		return nil, err
	}
	if err := sess.Settle(ctx, settle); err != nil {
		return nil, err
	}
	page, err := sess.Snapshot(ctx, req.SearchTimeout)
	if err != nil {
		return nil, err
	}
	if page.URL == "" {
		page.URL = searchURL
	}
	return p.extractor.Extract(page.URL, page.HTML, req.ResultLimit)
}

// fetchAll fetches results sequentially on sess, or with up to workers
// sessions when workers > 1. The search session is always one of them, so
// a helper that cannot start a browser only costs throughput.
func (p *Pipeline) fetchAll(ctx context.Context, sess browser.Session, results []search.SearchResult, opts crawler.FetchOptions, workers int) []crawler.FetchedPage {
	pages := make([]crawler.FetchedPage, len(results))
	if workers > len(results) {
		workers = len(results)
	}
	if workers <= 1 {
		for i, r := range results {
			pages[i] = p.fetcher.Fetch(ctx, sess, r, opts)
		}
		return pages
	}

	jobs := make(chan int)
	var g errgroup.Group
	g.Go(func() error {
		p.drain(ctx, sess, jobs, results, pages, opts)
		return nil
	})
	for w := 1; w < workers; w++ {
		g.Go(func() error {
			helper, err := p.launcher.Acquire(ctx)
			if err != nil {
				crawler.Logger(ctx, p.logger).Warn("fetch worker has no browser session", zap.Int("worker", w), zap.Error(err))
				return nil
			}
			defer helper.Release()
			p.drain(ctx, helper, jobs, results, pages, opts)
			return nil
		})
	}

	for i := range results {
		jobs <- i
	}
	close(jobs)
	_ = g.Wait()
	return pages
}

func (p *Pipeline) drain(ctx context.Context, sess browser.Session, jobs <-chan int, results []search.SearchResult, pages []crawler.FetchedPage, opts crawler.FetchOptions) {
	for i := range jobs {
		pages[i] = p.fetcher.Fetch(ctx, sess, results[i], opts)
	}
}

// FetchURL loads a single known page and returns its text, truncated to
// the configured fetch-url budget.
func (p *Pipeline) FetchURL(ctx context.Context, rawURL string) (string, error) {
	ctx, _ = crawler.WithInvocationID(ctx)

	target, err := crawler.ValidateURL(rawURL)
	if err != nil {
		return "", &PipelineError{Kind: KindInvalidInput, Err: err}
	}
	mode, err := crawler.ParseMode(p.cfg.ContentMode)
	if err != nil {
		return "", &PipelineError{Kind: KindInvalidInput, Err: err}
	}

	budget := p.cfg.InvocationTimeout
	if budget <= 0 {
		budget = acquireAllowance + p.cfg.FetchTimeout + p.cfg.ReadyTimeout + p.cfg.SettleDelay
	}
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	sess, err := p.launcher.Acquire(ctx)
	if err != nil {
		return "", &PipelineError{Kind: KindSessionUnavailable, Err: err}
	}
	defer sess.Release()

	page := p.fetcher.Fetch(ctx, sess, search.SearchResult{URL: target}, crawler.FetchOptions{
		Timeout: p.cfg.FetchTimeout,
		Budget:  p.cfg.FetchURLBudget,
		Mode:    mode,
		Settle:  browser.SettleOptions{ReadyTimeout: p.cfg.ReadyTimeout, Delay: p.cfg.SettleDelay},
	})
	if !page.OK() {
		return "", &PipelineError{Kind: KindFetchFailed, Err: errors.New(page.Err)}
	}
	return page.Text, nil
}
