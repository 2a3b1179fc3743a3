package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<!DOCTYPE html>
<html><head><title>Concurrency in Go</title><script>window.tracking = true;</script></head>
<body>
<nav><ul><li><a href="/">Site Navigation Menu</a></li></ul></nav>
<article>
<h1>Concurrency in Go</h1>
<p>Goroutines are lightweight threads managed by the Go runtime. Starting one costs only a few
kilobytes of stack, which grows and shrinks as needed, so programs routinely run many thousands of them.</p>
<p>Channels connect goroutines. A send on an unbuffered channel blocks until a receiver is ready,
which makes channels a synchronization tool as much as a way to pass values between goroutines.</p>
<p>The select statement lets a goroutine wait on several channel operations at once, proceeding with
whichever becomes ready first, and a default case turns it into a non-blocking poll.</p>
<p>Contexts carry deadlines and cancellation signals across API boundaries, so a request that is
abandoned by its caller can stop the work it started in other goroutines promptly.</p>
</article>
<footer>Copyright notice</footer>
</body></html>`

func TestParseMode(t *testing.T) {
	testCases := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeText, false},
		{"text", ModeText, false},
		{" Readability ", ModeReadability, false},
		{"trafilatura", ModeTrafilatura, false},
		{"MARKDOWN", ModeMarkdown, false},
		{"pdf", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseMode(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtractText_Readability(t *testing.T) {
	text, err := ExtractText(ModeReadability, articleHTML, "https://example.com/go")
	require.NoError(t, err)
	assert.Contains(t, text, "Channels connect goroutines.")
	assert.NotContains(t, text, "window.tracking")
}

func TestExtractText_Markdown(t *testing.T) {
	md, err := ExtractText(ModeMarkdown, articleHTML, "https://example.com/go")
	require.NoError(t, err)
	assert.Contains(t, md, "Goroutines are lightweight threads")
	assert.NotContains(t, md, "<p>")
	assert.NotContains(t, md, "window.tracking")
}

func TestExtractText_RejectsTextMode(t *testing.T) {
	_, err := ExtractText(ModeText, articleHTML, "https://example.com/go")
	require.Error(t, err)
}

func TestStripChrome(t *testing.T) {
	body, err := stripChrome(articleHTML)
	require.NoError(t, err)
	assert.NotContains(t, body, "Site Navigation Menu")
	assert.NotContains(t, body, "Copyright notice")
	assert.Contains(t, body, "<article>")
}
