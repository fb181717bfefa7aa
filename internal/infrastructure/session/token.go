// Package session reads the anti-forgery token a page sends on
// state-changing requests.
package session

import (
	"net/url"
	"strings"

	"github.com/erp/importer/internal/infrastructure/browser"
)

// DefaultCookieName is the cookie the backend stores its CSRF token in
const DefaultCookieName = "csrftoken"

// Token returns the decoded value of the cookie called name. It reports
// false when store is nil, the store is absent, or no entry is named
// exactly name. A value with malformed percent-encoding is returned as is.
func Token(store browser.CookieStore, name string) (string, bool) {
	if store == nil || name == "" {
		return "", false
	}
	raw, ok := store.CookieString()
	if !ok || raw == "" {
		return "", false
	}

	prefix := name + "="
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimLeft(entry, " \t")
		if !strings.HasPrefix(entry, prefix) {
			continue
		}
		value := entry[len(prefix):]
		if decoded, err := url.PathUnescape(value); err == nil {
			return decoded, true
		}
		return value, true
	}
	return "", false
}
