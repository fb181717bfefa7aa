package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/erp/importer/internal/infrastructure/browser"
)

func TestToken(t *testing.T) {
	tests := []struct {
		name    string
		cookies string
		want    string
		wantOK  bool
	}{
		{"Only cookie", "csrftoken=abc123", "abc123", true},
		{"Among others", "sessionid=s1; csrftoken=abc123; theme=dark", "abc123", true},
		{"Leading whitespace trimmed", "a=1;   csrftoken=abc", "abc", true},
		{"Percent decoded", "csrftoken=a%20b%2Fc", "a b/c", true},
		{"Plus is not a space", "csrftoken=a+b", "a+b", true},
		{"Malformed escape returned raw", "csrftoken=a%zz", "a%zz", true},
		{"First match wins", "csrftoken=first; csrftoken=second", "first", true},
		{"Empty value", "csrftoken=", "", true},
		{"Prefixed name does not match", "xcsrftoken=nope", "", false},
		{"Suffixed name does not match", "csrftokenx=nope", "", false},
		{"Both near misses", "xcsrftoken=a; csrftokenx=b", "", false},
		{"Name without value", "csrftoken", "", false},
		{"Empty store", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Token(browser.NewMemoryCookieStore(tt.cookies), DefaultCookieName)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("No cookie store", func(t *testing.T) {
		_, ok := Token(browser.NoCookieStore(), DefaultCookieName)
		assert.False(t, ok)

		_, ok = Token(nil, DefaultCookieName)
		assert.False(t, ok)
	})

	t.Run("Other names", func(t *testing.T) {
		got, ok := Token(browser.NewMemoryCookieStore("sessionid=s%3D1; csrftoken=t"), "sessionid")
		assert.True(t, ok)
		assert.Equal(t, "s=1", got)
	})
}
