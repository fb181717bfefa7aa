// Package bootstrap runs when a page loads. A page showing a running
// import gets one reload scheduled, which is how job status refreshes.
package bootstrap

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/erp/importer/internal/infrastructure/browser"
	"github.com/erp/importer/internal/infrastructure/logger"
)

// DefaultDelay is how long a running-job page waits before reloading
const DefaultDelay = 5 * time.Second

// DefaultMarkers are the classes that mark a job as still running
var DefaultMarkers = []string{"status-processing", "progress-bar-animated"}

// Options tune Run. Zero values select the defaults.
type Options struct {
	Delay   time.Duration
	Markers []string
	Logger  *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Delay <= 0 {
		o.Delay = DefaultDelay
	}
	if len(o.Markers) == 0 {
		o.Markers = DefaultMarkers
	}
	o.Logger = logger.Named(o.Logger, "bootstrap")
	return o
}

// InProgress reports whether page carries any of the markers
func InProgress(page browser.ClassChecker, markers []string) bool {
	for _, m := range markers {
		if page.HasClass(m) {
			return true
		}
	}
	return false
}

// Handle is a scheduled reload
type Handle struct {
	timer browser.Timer
}

// Cancel stops the reload if it has not fired and reports whether it did
func (h *Handle) Cancel() bool {
	if h == nil || h.timer == nil {
		return false
	}
	return h.timer.Stop()
}

// Run schedules exactly one reload of nav after the delay when page shows a
// running job. It returns nil and false otherwise.
func Run(ctx context.Context, page browser.ClassChecker, nav browser.Navigator, clock browser.Clock, opts Options) (*Handle, bool) {
	opts = opts.withDefaults()
	if !InProgress(page, opts.Markers) {
		return nil, false
	}

	opts.Logger.Debug("job in progress, reload scheduled", zap.Duration("delay", opts.Delay))
	timer := clock.AfterFunc(opts.Delay, func() {
		if ctx.Err() != nil {
			return
		}
		if err := nav.Reload(ctx); err != nil {
			opts.Logger.Warn("reload failed", zap.Error(err))
		}
	})
	return &Handle{timer: timer}, true
}

// Watcher re-runs the bootstrap on every page an HTTPNavigator loads, so a
// running job keeps refreshing until its page no longer shows a marker
type Watcher struct {
	ctx   context.Context
	nav   *browser.HTTPNavigator
	clock browser.Clock
	opts  Options

	mu      sync.Mutex
	handle  *Handle
	stopped bool
	done    chan struct{}
	once    sync.Once
	reloads int
}

// Watch attaches a watcher to nav. Load the first page with nav.Navigate.
func Watch(ctx context.Context, nav *browser.HTTPNavigator, clock browser.Clock, opts Options) *Watcher {
	w := &Watcher{
		ctx:   ctx,
		nav:   nav,
		clock: clock,
		opts:  opts.withDefaults(),
		done:  make(chan struct{}),
	}
	nav.OnLoad(w.onLoad)
	return w
}

func (w *Watcher) onLoad(page *browser.HTMLPage) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.handle != nil {
		w.reloads++
	}
	h, scheduled := Run(w.ctx, page, w.nav, w.clock, w.opts)
	w.handle = h
	if !scheduled {
		w.finish()
	}
}

func (w *Watcher) finish() {
	w.once.Do(func() { close(w.done) })
}

// Done is closed once a loaded page shows no running job, or on Stop
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Reloads returns how many reloads the watcher has triggered
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

// Stop cancels any pending reload and ignores later loads
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	w.handle.Cancel()
	w.finish()
}
