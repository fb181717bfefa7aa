package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNoPage is returned by Reload before anything was loaded
var ErrNoPage = errors.New("no page loaded")

// Navigator moves the page to another location
type Navigator interface {
	// Navigate loads path, replacing the current page
	Navigate(ctx context.Context, path string) error
	// Reload loads the current page again
	Reload(ctx context.Context) error
}

// MemoryNavigator records navigation without loading anything
type MemoryNavigator struct {
	mu      sync.Mutex
	history []string
	reloads int
}

// Navigate implements Navigator
func (n *MemoryNavigator) Navigate(_ context.Context, path string) error {
	n.mu.Lock()
	n.history = append(n.history, path)
	n.mu.Unlock()
	return nil
}

// Reload implements Navigator
func (n *MemoryNavigator) Reload(context.Context) error {
	n.mu.Lock()
	n.reloads++
	n.mu.Unlock()
	return nil
}

// History returns every path navigated to, oldest first
func (n *MemoryNavigator) History() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.history))
	copy(out, n.history)
	return out
}

// Reloads returns the number of reloads
func (n *MemoryNavigator) Reloads() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.reloads
}

// PageFetcher loads the markup at a path
type PageFetcher interface {
	FetchPage(ctx context.Context, path string) ([]byte, error)
}

// HTTPNavigator loads server-rendered pages through a PageFetcher and hands
// every loaded page to the registered listeners
type HTTPNavigator struct {
	fetcher PageFetcher

	mu        sync.Mutex
	current   *HTMLPage
	listeners []func(*HTMLPage)
}

// NewHTTPNavigator creates a navigator over fetcher
func NewHTTPNavigator(fetcher PageFetcher) *HTTPNavigator {
	return &HTTPNavigator{fetcher: fetcher}
}

// OnLoad registers fn to run after each successful load
func (n *HTTPNavigator) OnLoad(fn func(*HTMLPage)) {
	n.mu.Lock()
	n.listeners = append(n.listeners, fn)
	n.mu.Unlock()
}

// Navigate implements Navigator
func (n *HTTPNavigator) Navigate(ctx context.Context, path string) error {
	return n.load(ctx, path)
}

// Reload implements Navigator
func (n *HTTPNavigator) Reload(ctx context.Context) error {
	n.mu.Lock()
	current := n.current
	n.mu.Unlock()
	if current == nil {
		return ErrNoPage
	}
	return n.load(ctx, current.Path())
}

// Current returns the last loaded page, or nil
func (n *HTTPNavigator) Current() *HTMLPage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

func (n *HTTPNavigator) load(ctx context.Context, path string) error {
	markup, err := n.fetcher.FetchPage(ctx, path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	page, err := ParseHTMLPage(path, markup)
	if err != nil {
		return err
	}

	n.mu.Lock()
	n.current = page
	listeners := make([]func(*HTMLPage), len(n.listeners))
	copy(listeners, n.listeners)
	n.mu.Unlock()

	for _, fn := range listeners {
		fn(page)
	}
	return nil
}
