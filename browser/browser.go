// Package browser owns headless browser processes. Every Session maps to
// exactly one Chrome process and must be released by whoever acquired it.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ReasonDriverUnavailable means the browser binary could not be found or started.
const ReasonDriverUnavailable = "driver_unavailable"

var (
	ErrNavigationTimeout = errors.New("navigation timeout")
	ErrNavigationFailed  = errors.New("navigation failed")
	ErrExtraction        = errors.New("extraction fault")
	ErrSessionReleased   = errors.New("browser session already released")
)

// SessionError reports that no browser session could be started.
type SessionError struct {
	Reason string
	Err    error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("browser session unavailable (%s): %v", e.Reason, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// Page is a snapshot of the rendered document.
type Page struct {
	URL  string
	HTML string
}

// SettleOptions bounds the wait for client-side rendering after navigation.
type SettleOptions struct {
	// ReadyTimeout bounds the wait for document.readyState to become "complete".
	ReadyTimeout time.Duration
	// Delay is a fixed pause after the ready check for client-side rendering.
	Delay time.Duration
}

// Session supports one in-flight navigation at a time.
type Session interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	Settle(ctx context.Context, opts SettleOptions) error
	Snapshot(ctx context.Context, timeout time.Duration) (Page, error)
	BodyText(ctx context.Context, timeout time.Duration) (string, error)
	// Release stops the browser process. It is idempotent.
	Release()
}

// Launcher starts a new, exclusively owned Session per call.
type Launcher interface {
	Acquire(ctx context.Context) (Session, error)
}
