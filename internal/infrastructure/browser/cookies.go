package browser

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// CookieStore exposes cookies the way a page sees them: one
// semicolon-delimited "name=value" string. ok is false when there is no
// cookie store at all.
type CookieStore interface {
	CookieString() (cookies string, ok bool)
}

// MemoryCookieStore is a settable CookieStore
type MemoryCookieStore struct {
	mu      sync.RWMutex
	raw     string
	present bool
}

// NewMemoryCookieStore creates a store holding raw
func NewMemoryCookieStore(raw string) *MemoryCookieStore {
	return &MemoryCookieStore{raw: raw, present: true}
}

// NoCookieStore returns a store that reports no cookie store present
func NoCookieStore() *MemoryCookieStore {
	return &MemoryCookieStore{}
}

// CookieString implements CookieStore
func (s *MemoryCookieStore) CookieString() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.raw, s.present
}

// Set replaces the cookie string
func (s *MemoryCookieStore) Set(raw string) {
	s.mu.Lock()
	s.raw = raw
	s.present = true
	s.mu.Unlock()
}

// JarCookieStore reads the cookies an http.CookieJar would send to a URL
type JarCookieStore struct {
	jar http.CookieJar
	url *url.URL
}

// NewJarCookieStore creates a store over jar scoped to u
func NewJarCookieStore(jar http.CookieJar, u *url.URL) *JarCookieStore {
	return &JarCookieStore{jar: jar, url: u}
}

// CookieString implements CookieStore
func (s *JarCookieStore) CookieString() (string, bool) {
	if s.jar == nil || s.url == nil {
		return "", false
	}
	cookies := s.jar.Cookies(s.url)
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; "), true
}
