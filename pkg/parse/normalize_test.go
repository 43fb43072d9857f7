package parse

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/novel-scraper/pkg/utils"
)

func TestNormalizeURL_NilInput(t *testing.T) {
	result := NormalizeURL(nil)
	if result != "" {
		t.Errorf("NormalizeURL(nil) = %q, want empty string", result)
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"UppercaseSchemeAndHost", "HTTPS://WWW.Pixiv.NET/novel/show.php?id=1", "https://www.pixiv.net/novel/show.php?id=1"},
		{"DefaultPortRemoved", "https://www.pixiv.net:443/novel/show.php?id=1", "https://www.pixiv.net/novel/show.php?id=1"},
		{"NonDefaultPortKept", "http://127.0.0.1:8080/novel/show.php?id=1", "http://127.0.0.1:8080/novel/show.php?id=1"},
		{"FragmentDropped", "https://www.pixiv.net/novel/show.php?id=1#comments", "https://www.pixiv.net/novel/show.php?id=1"},
		{"QueryKeptAndSorted", "https://www.pixiv.net/novel/show.php?b=2&id=1", "https://www.pixiv.net/novel/show.php?b=2&id=1"},
		{"QueryReordered", "https://www.pixiv.net/novel/show.php?id=1&a=0", "https://www.pixiv.net/novel/show.php?a=0&id=1"},
		{"TrailingSlash", "https://www.pixiv.net/novel/series/42/", "https://www.pixiv.net/novel/series/42"},
		{"EmptyPath", "https://www.pixiv.net", "https://www.pixiv.net/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := url.Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, NormalizeURL(parsed))
		})
	}
}

func TestNormalizeURL_DoesNotModifyInput(t *testing.T) {
	parsed, _ := url.Parse("HTTPS://Example.COM/path/#frag")
	original := parsed.String()

	NormalizeURL(parsed)

	assert.Equal(t, original, parsed.String())
}

func TestNormalizeString(t *testing.T) {
	assert.Equal(t, "https://www.pixiv.net/novel/show.php?id=7", NormalizeString("  https://WWW.pixiv.net/novel/show.php?id=7#x "))
	assert.Equal(t, "%zz", NormalizeString("%zz"), "unparsable input returned as-is")
}

func TestValidateEntryURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"https series", "https://www.pixiv.net/novel/series/11713692", "https://www.pixiv.net/novel/series/11713692", false},
		{"http chapter trimmed", "  http://www.pixiv.net/novel/show.php?id=1 ", "http://www.pixiv.net/novel/show.php?id=1", false},
		{"uppercase scheme", "HTTPS://www.pixiv.net/", "HTTPS://www.pixiv.net/", false},
		{"empty", "", "", true},
		{"blank", "   ", "", true},
		{"no scheme", "www.pixiv.net/novel/series/1", "", true},
		{"ftp", "ftp://www.pixiv.net/", "", true},
		{"no host", "https:///novel", "", true},
		{"garbage", "http://[::1", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateEntryURL(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, utils.ErrInvalidURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
