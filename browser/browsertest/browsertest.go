// Package browsertest provides an in-memory browser.Launcher for tests.
package browsertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"webhub/browser"
)

// Page is the canned content served for one URL.
type Page struct {
	HTML string
	Text string
	// Latency is compared against the navigation timeout; nothing sleeps.
	Latency     time.Duration
	NavigateErr error
	SnapshotErr error
	TextErr     error
	// Panic, when set, is raised by Snapshot and BodyText on this page.
	Panic string
}

type Launcher struct {
	AcquireErr error
	// MaxSessions caps concurrently open sessions when positive.
	MaxSessions int

	mu       sync.Mutex
	pages    map[string]Page
	acquired int
	released int
	open     int
	visits   []string
}

func NewLauncher(pages map[string]Page) *Launcher {
	if pages == nil {
		pages = make(map[string]Page)
	}
	return &Launcher{pages: pages}
}

func (l *Launcher) SetPage(url string, page Page) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pages[url] = page
}

func (l *Launcher) Acquire(ctx context.Context) (browser.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, &browser.SessionError{Reason: browser.ReasonDriverUnavailable, Err: err}
	}
	if l.AcquireErr != nil {
		return nil, &browser.SessionError{Reason: browser.ReasonDriverUnavailable, Err: l.AcquireErr}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.MaxSessions > 0 && l.open >= l.MaxSessions {
		return nil, &browser.SessionError{Reason: browser.ReasonDriverUnavailable, Err: fmt.Errorf("session limit %d reached", l.MaxSessions)}
	}
	l.acquired++
	l.open++
	return &Session{launcher: l}, nil
}

// Acquired counts successful Acquire calls.
func (l *Launcher) Acquired() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acquired
}

// Released counts every Release call, including repeated ones.
func (l *Launcher) Released() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.released
}

// Visits lists navigated URLs in order.
func (l *Launcher) Visits() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.visits...)
}

func (l *Launcher) page(url string) (Page, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.pages[url]
	return p, ok
}

type Session struct {
	launcher *Launcher

	mu       sync.Mutex
	current  string
	released bool
}

func (s *Session) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.launcher.mu.Lock()
	s.launcher.visits = append(s.launcher.visits, url)
	s.launcher.mu.Unlock()

	page, ok := s.launcher.page(url)
	switch {
	case !ok:
		return fmt.Errorf("navigate %s: %w: net::ERR_NAME_NOT_RESOLVED", url, browser.ErrNavigationFailed)
	case page.Latency > timeout:
		return fmt.Errorf("navigate %s: %w after %s", url, browser.ErrNavigationTimeout, timeout)
	case page.NavigateErr != nil:
		return fmt.Errorf("navigate %s: %w: %w", url, browser.ErrNavigationFailed, page.NavigateErr)
	}

	s.mu.Lock()
	s.current = url
	s.mu.Unlock()
	return nil
}

func (s *Session) Settle(ctx context.Context, _ browser.SettleOptions) error {
	return s.check(ctx)
}

func (s *Session) Snapshot(ctx context.Context, _ time.Duration) (browser.Page, error) {
	if err := s.check(ctx); err != nil {
		return browser.Page{}, err
	}
	url := s.currentURL()
	page, _ := s.launcher.page(url)
	if page.Panic != "" {
		panic(page.Panic)
	}
	if page.SnapshotErr != nil {
		return browser.Page{}, fmt.Errorf("%w: snapshot: %w", browser.ErrExtraction, page.SnapshotErr)
	}
	return browser.Page{URL: url, HTML: page.HTML}, nil
}

func (s *Session) BodyText(ctx context.Context, _ time.Duration) (string, error) {
	if err := s.check(ctx); err != nil {
		return "", err
	}
	page, _ := s.launcher.page(s.currentURL())
	if page.Panic != "" {
		panic(page.Panic)
	}
	if page.TextErr != nil {
		return "", fmt.Errorf("%w: body text: %w", browser.ErrExtraction, page.TextErr)
	}
	return page.Text, nil
}

func (s *Session) Release() {
	s.mu.Lock()
	first := !s.released
	s.released = true
	s.mu.Unlock()

	s.launcher.mu.Lock()
	s.launcher.released++
	if first {
		s.launcher.open--
	}
	s.launcher.mu.Unlock()
}

func (s *Session) check(ctx context.Context) error {
	s.mu.Lock()
	released := s.released
	s.mu.Unlock()
	if released {
		return browser.ErrSessionReleased
	}
	return ctx.Err()
}

func (s *Session) currentURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
