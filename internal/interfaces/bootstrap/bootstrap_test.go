package bootstrap

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/importer/internal/infrastructure/browser"
)

func page(t *testing.T, markup string) *browser.HTMLPage {
	t.Helper()
	p, err := browser.ParseHTMLPage("/importador/importacoes/1/", []byte(markup))
	require.NoError(t, err)
	return p
}

func TestRun(t *testing.T) {
	tests := []struct {
		name      string
		markup    string
		scheduled bool
	}{
		{"status badge", `<span class="badge status-processing">Processando</span>`, true},
		{"animated progress bar", `<div class="progress-bar progress-bar-striped progress-bar-animated"></div>`, true},
		{"completed job", `<span class="badge status-completed">Concluído</span><div class="progress-bar"></div>`, false},
		{"empty page", ``, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := browser.NewFakeClock()
			nav := &browser.MemoryNavigator{}

			h, scheduled := Run(context.Background(), page(t, tt.markup), nav, clock, Options{})
			assert.Equal(t, tt.scheduled, scheduled)
			assert.Equal(t, tt.scheduled, h != nil)

			clock.Advance(DefaultDelay - time.Millisecond)
			assert.Equal(t, 0, nav.Reloads())

			clock.Advance(time.Millisecond)
			want := 0
			if tt.scheduled {
				want = 1
			}
			assert.Equal(t, want, nav.Reloads())

			clock.Advance(time.Hour)
			assert.Equal(t, want, nav.Reloads(), "exactly one reload per run")
		})
	}
}

func TestRun_DocumentMarkers(t *testing.T) {
	doc := browser.NewMemoryDocument("", "")
	doc.Append(browser.NewElement("span", "s", "badge", "status-processing"))
	clock := browser.NewFakeClock()
	nav := &browser.MemoryNavigator{}

	_, scheduled := Run(context.Background(), doc, nav, clock, Options{Delay: time.Second})
	require.True(t, scheduled)

	clock.Advance(time.Second)
	assert.Equal(t, 1, nav.Reloads())
}

func TestHandle_Cancel(t *testing.T) {
	clock := browser.NewFakeClock()
	nav := &browser.MemoryNavigator{}

	h, scheduled := Run(context.Background(), page(t, `<i class="status-processing"></i>`), nav, clock, Options{})
	require.True(t, scheduled)

	assert.True(t, h.Cancel())
	assert.False(t, h.Cancel())
	clock.Advance(time.Minute)
	assert.Equal(t, 0, nav.Reloads())

	var none *Handle
	assert.False(t, none.Cancel())
}

func TestRun_CancelledContextSkipsReload(t *testing.T) {
	clock := browser.NewFakeClock()
	nav := &browser.MemoryNavigator{}
	ctx, cancel := context.WithCancel(context.Background())

	_, scheduled := Run(ctx, page(t, `<i class="status-processing"></i>`), nav, clock, Options{})
	require.True(t, scheduled)
	cancel()

	clock.Advance(DefaultDelay)
	assert.Equal(t, 0, nav.Reloads())
}

func TestRun_CustomMarkers(t *testing.T) {
	clock := browser.NewFakeClock()
	p := page(t, `<i class="job-running"></i>`)

	_, scheduled := Run(context.Background(), p, &browser.MemoryNavigator{}, clock, Options{})
	assert.False(t, scheduled)

	_, scheduled = Run(context.Background(), p, &browser.MemoryNavigator{}, clock, Options{Markers: []string{"job-running"}})
	assert.True(t, scheduled)
}

// sequenceFetcher serves a running page a fixed number of times, then a finished one
type sequenceFetcher struct {
	running int
	calls   int
}

func (f *sequenceFetcher) FetchPage(context.Context, string) ([]byte, error) {
	f.calls++
	if f.calls <= f.running {
		return []byte(fmt.Sprintf(`<div class="progress-bar progress-bar-animated" style="width:%d%%"></div>`, f.calls*30)), nil
	}
	return []byte(`<span class="badge bg-success">Concluído</span>`), nil
}

func TestWatcher(t *testing.T) {
	fetcher := &sequenceFetcher{running: 3}
	nav := browser.NewHTTPNavigator(fetcher)
	clock := browser.NewFakeClock()
	ctx := context.Background()

	w := Watch(ctx, nav, clock, Options{})
	require.NoError(t, nav.Navigate(ctx, "/importador/importacoes/1/"))

	for i := 0; i < 3; i++ {
		select {
		case <-w.Done():
			t.Fatalf("watcher finished after %d reloads", i)
		default:
		}
		assert.Equal(t, 1, clock.Pending())
		clock.Advance(DefaultDelay)
	}

	select {
	case <-w.Done():
	default:
		t.Fatal("watcher should finish once the job page shows no marker")
	}
	assert.Equal(t, 3, w.Reloads())
	assert.Equal(t, 4, fetcher.calls)
	assert.Equal(t, 0, clock.Pending())
}

func TestWatcher_Stop(t *testing.T) {
	fetcher := &sequenceFetcher{running: 100}
	nav := browser.NewHTTPNavigator(fetcher)
	clock := browser.NewFakeClock()
	ctx := context.Background()

	w := Watch(ctx, nav, clock, Options{})
	require.NoError(t, nav.Navigate(ctx, "/importador/importacoes/"))
	require.Equal(t, 1, clock.Pending())

	w.Stop()
	<-w.Done()
	assert.Equal(t, 0, clock.Pending())

	clock.Advance(time.Minute)
	assert.Equal(t, 1, fetcher.calls)
	assert.NotPanics(t, w.Stop)
}
