package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateURL(t *testing.T) {
	testCases := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "Plain", raw: "https://go.dev/doc/", want: "https://go.dev/doc/"},
		{name: "Trimmed", raw: "  http://example.com/a?b=c  ", want: "http://example.com/a?b=c"},
		{name: "UpperScheme", raw: "HTTPS://example.com/", want: "https://example.com/"},
		{name: "Empty", raw: " ", wantErr: true},
		{name: "NoScheme", raw: "example.com/a", wantErr: true},
		{name: "File", raw: "file:///etc/hosts", wantErr: true},
		{name: "NoHost", raw: "http://", wantErr: true},
		{name: "Malformed", raw: "http://[::1", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateURL(tc.raw)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
