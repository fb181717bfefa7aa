// Package main provides the CLI entry point for the spreadsheet importer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/erp/importer/internal/application/importing"
	"github.com/erp/importer/internal/domain/bulk"
	"github.com/erp/importer/internal/infrastructure/browser"
	"github.com/erp/importer/internal/infrastructure/client"
	"github.com/erp/importer/internal/infrastructure/config"
	"github.com/erp/importer/internal/infrastructure/format"
	"github.com/erp/importer/internal/infrastructure/logger"
	"github.com/erp/importer/internal/interfaces/bootstrap"
	"github.com/erp/importer/internal/interfaces/preview"
)

// Version information (populated at build time)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// CLI flags
var (
	configPath  string
	targetURL   string
	kind        string
	payloadPath string
	uploadPath  string
	htmlPath    string
	assumeYes   bool
	watch       bool
	follow      bool
	verbose     bool
	showVersion bool
)

// errImportFailed marks a run where the backend did not start the job
var errImportFailed = errors.New("import not started")

func init() {
	flag.StringVar(&configPath, "config", "", "Path to the TOML configuration file")
	flag.StringVar(&configPath, "c", "", "Path to the TOML configuration file (shorthand)")
	flag.StringVar(&targetURL, "target", "", "Override the backend base URL")

	flag.StringVar(&kind, "kind", "", "Module type: clientes or contratos")
	flag.StringVar(&kind, "k", "", "Module type (shorthand)")
	flag.StringVar(&uploadPath, "upload", "", "Spreadsheet to upload and preview")
	flag.StringVar(&payloadPath, "payload", "", "Preview payload (JSON) already extracted by the backend")
	flag.StringVar(&htmlPath, "html", "", "Write the rendered preview dialog to this file (- for stdout)")

	flag.BoolVar(&assumeYes, "yes", false, "Confirm the import without asking")
	flag.BoolVar(&assumeYes, "y", false, "Confirm the import without asking (shorthand)")
	flag.BoolVar(&watch, "watch", false, "Open the import history and refresh it while a job is running")
	flag.BoolVar(&follow, "follow", false, "After starting an import, keep refreshing the history until it finishes")
	flag.BoolVar(&verbose, "verbose", false, "Enable debug logging")
	flag.BoolVar(&verbose, "v", false, "Enable debug logging (shorthand)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = printUsage
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `importctl - ERP spreadsheet importer

USAGE:
    importctl -kind <clientes|contratos> -upload <file.csv> [options]
    importctl -kind <clientes|contratos> -payload <preview.json> [options]
    importctl -watch

DESCRIPTION:
    Uploads a spreadsheet to the import backend, shows the extracted preview,
    asks for confirmation and starts the import job. The import history is
    then loaded; while a job is running it is refreshed periodically.

OPTIONS:
    -config, -c <path>    TOML configuration file (default: importer.toml)
    -target <url>         Override the backend base URL
    -kind, -k <module>    clientes or contratos
    -upload <file>        Spreadsheet to upload
    -payload <file>       Preview payload JSON to render instead of uploading
    -html <file|->        Write the preview dialog markup
    -yes, -y              Confirm without asking
    -follow               Refresh the history until the job finishes
    -watch                Only watch the import history
    -verbose, -v          Enable debug logging
    -version              Show version information

EXAMPLES:
    importctl -kind contratos -upload contratos.csv
    importctl -kind clientes -upload clientes.csv -yes -follow
    importctl -kind contratos -payload preview.json -html -
    importctl -watch
`)
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Printf("importctl %s (built %s, commit %s)\n", version, buildTime, gitCommit)
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if targetURL != "" {
		cfg.Target.BaseURL = targetURL
	}

	logCfg := &logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output}
	if verbose {
		logCfg.Level = "debug"
	}
	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errImportFailed) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	c, err := client.NewClient(cfg.Target, client.WithLogger(log))
	if err != nil {
		return err
	}
	nav := browser.NewHTTPNavigator(c)
	watchOpts := bootstrap.Options{
		Delay:   cfg.Bootstrap.ReloadDelay,
		Markers: cfg.Bootstrap.Markers,
		Logger:  log,
	}

	if watch {
		w := bootstrap.Watch(ctx, nav, browser.RealClock{}, watchOpts)
		nav.OnLoad(reportPage(watchOpts.Markers))
		if err := nav.Navigate(ctx, cfg.Endpoints.HistoryPath); err != nil {
			return err
		}
		return waitWatcher(ctx, w)
	}

	moduleType, err := bulk.ParseModuleType(kind)
	if err != nil {
		return fmt.Errorf("-kind: %w", err)
	}
	raw, err := loadPayload(ctx, c, cfg, moduleType, log)
	if err != nil {
		return err
	}

	formatter, err := format.New(format.Locale{
		Language:       cfg.Locale.Language,
		Currency:       cfg.Locale.Currency,
		CurrencySymbol: cfg.Locale.CurrencySymbol,
		Timezone:       cfg.Locale.Timezone,
	})
	if err != nil {
		return err
	}

	var prompter browser.Prompter = browser.NewTerminalPrompter(os.Stdin, os.Stdout)
	if assumeYes {
		prompter = browser.NewAutoPrompter(os.Stdout)
	}
	trigger := importing.NewTrigger(c, importing.Page{
		Cookies:   c.CookieStore(),
		Prompter:  prompter,
		Notifier:  browser.NewTerminalNotifier(os.Stdout),
		Navigator: nav,
	}, importing.ConfigFrom(cfg), log)

	doc := browser.NewMemoryDocument("Importador", cfg.Locale.Language)
	renderer := preview.NewRenderer(formatter, doc, trigger, log)
	dialog, err := renderer.RenderPreview(moduleType, raw)
	if err != nil {
		return fmt.Errorf("rendering preview: %w", err)
	}
	if err := writeHTML(doc); err != nil {
		return err
	}
	printSummary(moduleType, raw, formatter)

	var w *bootstrap.Watcher
	if follow {
		w = bootstrap.Watch(ctx, nav, browser.RealClock{}, watchOpts)
		nav.OnLoad(reportPage(watchOpts.Markers))
	}

	result, err := dialog.Confirm(ctx)
	if err != nil {
		return err
	}
	switch result.Outcome {
	case importing.Declined:
		fmt.Println("Importação não realizada.")
		return nil
	case importing.Rejected, importing.TransportFailed, importing.Invalid:
		return fmt.Errorf("%w: %s", errImportFailed, result.Outcome)
	}

	fmt.Printf("Job %s\n", result.JobID)
	if result.Err != nil {
		log.Warn("history page could not be loaded", zap.Error(result.Err))
		return nil
	}
	if w != nil {
		return waitWatcher(ctx, w)
	}
	return nil
}

func loadPayload(ctx context.Context, c *client.Client, cfg *config.Config, moduleType bulk.ModuleType, log *zap.Logger) ([]byte, error) {
	switch {
	case uploadPath != "" && payloadPath != "":
		return nil, errors.New("-upload and -payload are mutually exclusive")
	case uploadPath != "":
		u := importing.NewUploader(c, c.CookieStore(), cfg.Endpoints.UploadPath, importing.ConfigFrom(cfg), log)
		return u.Upload(ctx, moduleType, uploadPath)
	case payloadPath != "":
		return os.ReadFile(payloadPath)
	}
	return nil, errors.New("one of -upload or -payload is required")
}

func writeHTML(doc *browser.MemoryDocument) error {
	switch htmlPath {
	case "":
		return nil
	case "-":
		return doc.Render(os.Stdout)
	}
	f, err := os.Create(htmlPath)
	if err != nil {
		return err
	}
	if err := doc.Render(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func reportPage(markers []string) func(*browser.HTMLPage) {
	return func(page *browser.HTMLPage) {
		state := "nenhuma importação em andamento"
		if bootstrap.InProgress(page, markers) {
			state = "importação em andamento"
		}
		fmt.Printf("%s: %s\n", page.Path(), state)
	}
}

func printSummary(moduleType bulk.ModuleType, raw []byte, f *format.Formatter) {
	s, err := preview.Summarize(f, moduleType, raw)
	if err != nil {
		return
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "%s\n\n", s.Caption())
	fmt.Fprintln(tw, strings.Join(s.Header, "\t"))
	for _, row := range s.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	fmt.Fprintln(tw)
}

func waitWatcher(ctx context.Context, w *bootstrap.Watcher) error {
	select {
	case <-w.Done():
		fmt.Printf("Nenhuma importação em andamento (%d atualizações).\n", w.Reloads())
		return nil
	case <-ctx.Done():
		w.Stop()
		return ctx.Err()
	}
}
