package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"webhub/config"
)

func TestSessionError(t *testing.T) {
	cause := errors.New("exec: \"google-chrome\": executable file not found in $PATH")
	err := error(&SessionError{Reason: ReasonDriverUnavailable, Err: cause})

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "driver_unavailable")

	var se *SessionError
	require.ErrorAs(t, fmt.Errorf("acquire: %w", err), &se)
	assert.Equal(t, ReasonDriverUnavailable, se.Reason)
}

func TestAcquire_MissingExecutable(t *testing.T) {
	cfg := config.Default().Browser
	cfg.ExecPath = "/nonexistent/bin/chrome-for-tests"

	l := NewChromeLauncher(zaptest.NewLogger(t), cfg)
	sess, err := l.Acquire(context.Background())

	require.Nil(t, sess)
	var se *SessionError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ReasonDriverUnavailable, se.Reason)
}

func TestChromeSession_ReleaseIsIdempotent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	s := &chromeSession{
		ctx: ctx,
		cancel: func() {
			calls++
			cancel()
		},
		logger:  zaptest.NewLogger(t),
		started: time.Now(),
	}

	s.Release()
	s.Release()

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, s.Navigate(context.Background(), "https://example.com/", time.Second), ErrSessionReleased)
	_, err := s.BodyText(context.Background(), time.Second)
	assert.ErrorIs(t, err, ErrSessionReleased)
}

// TestChromeSession_Live drives a real Chrome and only runs when
// WEBHUB_CHROME_TESTS=1.
func TestChromeSession_Live(t *testing.T) {
	if os.Getenv("WEBHUB_CHROME_TESTS") != "1" {
		t.Skip("set WEBHUB_CHROME_TESTS=1 to run against a local Chrome")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><p>Hello World</p></body></html>`)
	}))
	defer srv.Close()

	l := NewChromeLauncher(zaptest.NewLogger(t), config.Default().Browser)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sess, err := l.Acquire(ctx)
	require.NoError(t, err)
	defer sess.Release()

	require.NoError(t, sess.Navigate(ctx, srv.URL, 20*time.Second))
	require.NoError(t, sess.Settle(ctx, SettleOptions{ReadyTimeout: 2 * time.Second}))

	text, err := sess.BodyText(ctx, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", text)

	page, err := sess.Snapshot(ctx, 5*time.Second)
	require.NoError(t, err)
	assert.Contains(t, page.HTML, "<p>Hello World</p>")
}
