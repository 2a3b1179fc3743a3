package search

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"webhub/config"
)

// ErrInvalidRequest is wrapped by every SearchRequest validation failure.
var ErrInvalidRequest = errors.New("invalid search request")

// acquireAllowance is the share of an invocation budget reserved for starting the browser.
const acquireAllowance = 30 * time.Second

type SearchResult struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Engine string `json:"engine,omitempty"`
}

// SearchRequest is one search_and_fetch invocation. Treat it as immutable once validated.
type SearchRequest struct {
	Query             string        `json:"query"`
	ResultLimit       int           `json:"result_limit"`
	PerPageByteBudget int           `json:"per_page_byte_budget"`
	NavigationTimeout time.Duration `json:"navigation_timeout"`
	SearchTimeout     time.Duration `json:"search_timeout"`
	EngineTemplate    string        `json:"engine_template"`
	SettleDelay       time.Duration `json:"settle_delay"`
	ReadyTimeout      time.Duration `json:"ready_timeout"`
	ContentMode       string        `json:"content_mode,omitempty"`
	Concurrency       int           `json:"concurrency,omitempty"`
	InvocationTimeout time.Duration `json:"invocation_timeout,omitempty"`
}

// NewSearchRequest fills a request for query from the configured defaults.
func NewSearchRequest(query string, cfg config.SearchConfig) SearchRequest {
	return SearchRequest{
		Query:             query,
		ResultLimit:       cfg.ResultLimit,
		PerPageByteBudget: cfg.ByteBudget,
		NavigationTimeout: cfg.FetchTimeout,
		SearchTimeout:     cfg.SearchTimeout,
		EngineTemplate:    cfg.EngineTemplate,
		SettleDelay:       cfg.SettleDelay,
		ReadyTimeout:      cfg.ReadyTimeout,
		ContentMode:       cfg.ContentMode,
		Concurrency:       cfg.Concurrency,
		InvocationTimeout: cfg.InvocationTimeout,
	}
}

func (r SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return fmt.Errorf("%w: query must not be empty", ErrInvalidRequest)
	}
	if r.ResultLimit <= 0 || r.ResultLimit > config.MaxResultLimit {
		return fmt.Errorf("%w: result limit must be between 1 and %d, got %d", ErrInvalidRequest, config.MaxResultLimit, r.ResultLimit)
	}
	if r.PerPageByteBudget <= 0 {
		return fmt.Errorf("%w: byte budget must be positive, got %d", ErrInvalidRequest, r.PerPageByteBudget)
	}
	if r.NavigationTimeout <= 0 || r.SearchTimeout <= 0 ||
		r.NavigationTimeout > config.MaxTimeout || r.SearchTimeout > config.MaxTimeout {
		return fmt.Errorf("%w: navigation timeouts must be positive and at most %s", ErrInvalidRequest, config.MaxTimeout)
	}
	if r.SettleDelay < 0 || r.ReadyTimeout < 0 ||
		r.SettleDelay > config.MaxSettleWindow || r.ReadyTimeout > config.MaxSettleWindow {
		return fmt.Errorf("%w: settle durations must be between 0 and %s", ErrInvalidRequest, config.MaxSettleWindow)
	}
	if r.InvocationTimeout < 0 {
		return fmt.Errorf("%w: invocation timeout must not be negative", ErrInvalidRequest)
	}
	if r.Concurrency < 0 {
		return fmt.Errorf("%w: concurrency must not be negative", ErrInvalidRequest)
	}
	if _, err := r.SearchURL(); err != nil {
		return err
	}
	return nil
}

// SearchURL substitutes the URL-encoded query into the engine template.
func (r SearchRequest) SearchURL() (string, error) {
	if strings.Count(r.EngineTemplate, config.QueryPlaceholder) != 1 {
		return "", fmt.Errorf("%w: engine template must contain %s exactly once", ErrInvalidRequest, config.QueryPlaceholder)
	}
	raw := strings.Replace(r.EngineTemplate, config.QueryPlaceholder, url.QueryEscape(strings.TrimSpace(r.Query)), 1)
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: engine template: %v", ErrInvalidRequest, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: engine template must be an http(s) URL", ErrInvalidRequest)
	}
	return u.String(), nil
}

// Budget is the wall-clock bound for the whole invocation.
func (r SearchRequest) Budget() time.Duration {
	if r.InvocationTimeout > 0 {
		return r.InvocationTimeout
	}
	settle := r.ReadyTimeout + r.SettleDelay
	perPage := r.NavigationTimeout + settle
	return acquireAllowance + r.SearchTimeout + settle + time.Duration(r.ResultLimit)*perPage
}
