package browser

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"webhub/config"
)

const (
	readyStateJS   = `document.readyState === "complete"`
	acceptLanguage = "en-US,en;q=0.9"
)

// ChromeLauncher acquires sessions backed by a local Chrome through chromedp.
type ChromeLauncher struct {
	logger          *zap.Logger
	execPath        string
	ChromedpOptions []chromedp.ExecAllocatorOption
}

func NewChromeLauncher(logger *zap.Logger, cfg config.BrowserConfig) *ChromeLauncher {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(1920, 1080),

		// Stealth options
		chromedp.Flag("accept-language", acceptLanguage),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("exclude-switches", "enable-automation"),
		chromedp.Flag("disable-extensions", true),
	)
	if !cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.ProxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(cfg.ProxyURL))
	}

	return &ChromeLauncher{
		logger:          logger,
		execPath:        cfg.ExecPath,
		ChromedpOptions: opts,
	}
}

// Acquire starts a dedicated Chrome process. The process is bound to ctx:
// cancelling ctx kills it even if Release is never reached.
func (l *ChromeLauncher) Acquire(ctx context.Context) (Session, error) {
	if l.execPath != "" {
		if _, err := exec.LookPath(l.execPath); err != nil {
			return nil, &SessionError{Reason: ReasonDriverUnavailable, Err: err}
		}
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, l.ChromedpOptions...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(l.logger.Sugar().Debugf),
		chromedp.WithErrorf(l.logger.Sugar().Warnf),
	)
	cancel := func() {
		tabCancel()
		allocCancel()
	}

	started := time.Now()
	// The first Run launches the browser so that a missing binary fails here.
	if err := chromedp.Run(tabCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": acceptLanguage}),
	); err != nil {
		cancel()
		l.logger.Error("Failed to start browser", zap.Error(err))
		return nil, &SessionError{Reason: ReasonDriverUnavailable, Err: err}
	}

	l.logger.Info("browser session acquired", zap.Duration("startup", time.Since(started)))
	return &chromeSession{
		ctx:     tabCtx,
		cancel:  cancel,
		logger:  l.logger,
		started: started,
	}, nil
}

type chromeSession struct {
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.Logger
	started  time.Time
	once     sync.Once
	released atomic.Bool
}

// run executes actions against the tab under a per-call timeout that also
// ends when the caller's ctx does.
func (s *chromeSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if s.released.Load() {
		return ErrSessionReleased
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (s *chromeSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	err := s.run(ctx, timeout, chromedp.Navigate(url))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrSessionReleased):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("navigate %s: %w after %s", url, ErrNavigationTimeout, timeout)
	default:
		return fmt.Errorf("navigate %s: %w: %w", url, ErrNavigationFailed, err)
	}
}

// Settle waits until the document reports ready (or ReadyTimeout passes,
// which is not an error) and then pauses for the fixed delay.
func (s *chromeSession) Settle(ctx context.Context, opts SettleOptions) error {
	if opts.ReadyTimeout > 0 {
		var ready bool
		err := s.run(ctx, opts.ReadyTimeout+time.Second,
			chromedp.Poll(readyStateJS, &ready,
				chromedp.WithPollingTimeout(opts.ReadyTimeout),
				chromedp.WithPollingInterval(100*time.Millisecond)),
		)
		switch {
		case err == nil:
		case errors.Is(err, chromedp.ErrPollingTimeout), errors.Is(err, context.DeadlineExceeded):
			s.logger.Debug("document not ready before settle timeout", zap.Duration("ready_timeout", opts.ReadyTimeout))
		default:
			return fmt.Errorf("%w: wait for ready state: %w", ErrExtraction, err)
		}
	}

	if opts.Delay <= 0 {
		return nil
	}
	t := time.NewTimer(opts.Delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *chromeSession) Snapshot(ctx context.Context, timeout time.Duration) (Page, error) {
	var page Page
	err := s.run(ctx, timeout,
		chromedp.Location(&page.URL),
		chromedp.Evaluate(`document.documentElement ? document.documentElement.outerHTML : ""`, &page.HTML),
	)
	if err != nil {
		return Page{}, fmt.Errorf("%w: snapshot: %w", ErrExtraction, err)
	}
	return page, nil
}

func (s *chromeSession) BodyText(ctx context.Context, timeout time.Duration) (string, error) {
	var text string
	err := s.run(ctx, timeout,
		chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &text),
	)
	if err != nil {
		return "", fmt.Errorf("%w: body text: %w", ErrExtraction, err)
	}
	return text, nil
}

func (s *chromeSession) Release() {
	s.once.Do(func() {
		s.released.Store(true)
		if err := chromedp.Cancel(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Debug("graceful browser close failed", zap.Error(err))
		}
		s.cancel()
		s.logger.Info("browser session released", zap.Duration("lifetime", time.Since(s.started)))
	})
}
