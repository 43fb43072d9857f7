package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Sriram-PR/novel-scraper/pkg/config"
	"github.com/Sriram-PR/novel-scraper/pkg/download"
	"github.com/Sriram-PR/novel-scraper/pkg/extract"
	"github.com/Sriram-PR/novel-scraper/pkg/fetch"
	logpkg "github.com/Sriram-PR/novel-scraper/pkg/log"
	"github.com/Sriram-PR/novel-scraper/pkg/output"
	"github.com/Sriram-PR/novel-scraper/pkg/parse"
	"github.com/Sriram-PR/novel-scraper/pkg/resolve"
	"github.com/Sriram-PR/novel-scraper/pkg/storage"
)

type downloadFlags struct {
	configPath  string
	start       int
	end         int
	concurrency int
	delayMs     int
	outputDir   string
	cookie      string
	format      string
	report      string
	noProgress  bool
	logLevel    string
}

func newDownloadCmd(stdout, stderr io.Writer) *cobra.Command {
	f := &downloadFlags{}
	cmd := &cobra.Command{
		Use:   "download [url]",
		Short: "Download a novel or a whole series. Config values are overridden by the flags that are set",
		Example: `  novel-scraper download https://www.pixiv.net/novel/series/11713692
  novel-scraper download https://www.pixiv.net/novel/show.php?id=20713216 --format epub
  novel-scraper download --start 10 --end 19 --concurrency 4 --report failures.tsv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd, f, args, stdout, stderr)
		},
	}
	bindDownloadFlags(cmd, f)
	return cmd
}

func bindDownloadFlags(cmd *cobra.Command, f *downloadFlags) {
	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "config.yaml", "path to config file")
	fl.IntVar(&f.start, "start", 0, "first chapter to download (0-based, inclusive)")
	fl.IntVar(&f.end, "end", -1, "last chapter to download (0-based, inclusive; -1 = last)")
	fl.IntVar(&f.concurrency, "concurrency", config.DefaultConcurrency, "max chapters fetched at once")
	fl.IntVar(&f.delayMs, "delay", config.DefaultRequestDelayMs, "delay before each chapter fetch, in milliseconds")
	fl.StringVar(&f.outputDir, "output-dir", config.DefaultOutputDir, "directory the book is written to")
	fl.StringVar(&f.cookie, "cookie", "", "raw Cookie header, e.g. \"PHPSESSID=...\"")
	fl.StringVar(&f.format, "format", config.DefaultOutputFormat, "output format: txt or epub")
	fl.StringVar(&f.report, "report", "", "write a per-chapter TSV report to this path")
	fl.BoolVar(&f.noProgress, "no-progress", false, "disable the progress bar")
	fl.StringVar(&f.logLevel, "loglevel", "info", "log level (trace, debug, info, warn, error)")
}

// applyOverrides copies the flags the user actually set onto cfg
func applyOverrides(cmd *cobra.Command, f *downloadFlags, cfg *config.AppConfig) {
	changed := cmd.Flags().Changed
	if changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}
	if changed("delay") {
		cfg.RequestDelayMs = f.delayMs
	}
	if changed("output-dir") {
		cfg.OutputDir = f.outputDir
	}
	if changed("cookie") {
		cfg.Cookie = f.cookie
	}
	if changed("format") {
		cfg.OutputFormat = f.format
	}
}

func runDownload(cmd *cobra.Command, f *downloadFlags, args []string, stdout, stderr io.Writer) error {
	log := logpkg.New(f.logLevel, stderr)
	runLog := log.WithField("run_id", uuid.NewString())

	// --- Config ---
	cfg, err := loadConfigOrDefault(f.configPath, runLog)
	if err != nil {
		return &exitError{code: 1, err: err}
	}
	applyOverrides(cmd, f, cfg)
	warnings, err := cfg.Validate()
	for _, w := range warnings {
		runLog.Warn(w)
	}
	if err != nil {
		return &exitError{code: 1, err: err}
	}
	format, err := output.ParseFormat(cfg.OutputFormat)
	if err != nil {
		return &exitError{code: 1, err: err}
	}

	// --- Entry URL ---
	raw := ""
	if len(args) > 0 {
		raw = args[0]
	} else if raw, err = promptEntryURL(); err != nil {
		return &exitError{code: 1, err: fmt.Errorf("read url: %w", err)}
	}
	entryURL, err := parse.ValidateEntryURL(raw)
	if err != nil {
		return &exitError{code: 1, err: err}
	}

	ctx, stop := signalContext(runLog)
	defer stop()

	// --- Pipeline ---
	fetcher := fetch.NewFetcher(fetch.NewClient(cfg, runLog), runLog)
	defer fetcher.Close()
	endpoints := parse.Endpoints{BaseURL: cfg.BaseURL, Lang: cfg.Lang}

	book, err := resolve.NewResolver(fetcher, endpoints, runLog).ResolveBook(ctx, entryURL)
	if err != nil {
		return &exitError{code: 1, err: fmt.Errorf("resolve %s: %w", entryURL, err)}
	}
	runLog.WithFields(logrus.Fields{
		"title":    book.Title,
		"author":   book.Author,
		"chapters": len(book.Chapters),
		"series":   book.IsSeries,
	}).Info("Book resolved")

	start, end, err := download.ClampRange(len(book.Chapters), f.start, f.end)
	if err != nil {
		runLog.Warnf("Nothing to download: %v", err)
		return &exitError{code: 1, err: err}
	}

	store, err := storage.NewBadgerStore(runLog)
	if err != nil {
		return &exitError{code: 1, err: err}
	}
	defer store.Close()

	opts := []download.Option{}
	var bar *progressBar
	if !f.noProgress {
		bar = newProgressBar(stderr, book.Title, end-start+1)
		opts = append(opts, download.WithProgress(bar))
	}

	dl := download.NewDownloader(extract.NewExtractor(fetcher, endpoints, runLog), store, runLog, opts...)
	summary, err := dl.Download(ctx, book, download.Options{
		OutputDir:    cfg.OutputDir,
		Start:        start,
		End:          end,
		Concurrency:  cfg.Concurrency,
		RequestDelay: cfg.RequestDelay(),
		Format:       format,
	})
	if bar != nil {
		bar.Wait()
	}
	if err != nil {
		return &exitError{code: 1, err: err}
	}

	if f.report != "" {
		if err := store.WriteReport(f.report); err != nil {
			runLog.Errorf("Failed to write report: %v", err)
		} else {
			runLog.Infof("Report written to %s", f.report)
		}
	}

	printSummary(stdout, summary)
	if !summary.Complete() {
		return &exitError{code: 2}
	}
	return nil
}

func printSummary(w io.Writer, s *download.Summary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Download Summary:")
	fmt.Fprintf(w, "Output:    %s\n", s.OutputPath)
	if s.Checksum != "" {
		fmt.Fprintf(w, "SHA-256:   %s\n", s.Checksum)
	}
	fmt.Fprintf(w, "Chapters:  %d\n", s.Total)
	fmt.Fprintf(w, "Succeeded: %d\n", s.Succeeded)
	fmt.Fprintf(w, "Failed:    %d\n", s.Failed)
	fmt.Fprintf(w, "Time:      %s\n", s.Duration.Round(time.Second))
	for _, fl := range s.Failures {
		fmt.Fprintf(w, "  #%d %s [%s] %s\n", fl.Index, fl.Title, fl.ErrorType, fl.URL)
	}
	fmt.Fprintf(w, "\nDownload %s.\n", s.String())
}

// signalContext is cancelled by the first SIGINT/SIGTERM. In-flight chapters finish as
// placeholders and the partial book is still written; a second signal exits immediately.
func signalContext(log logrus.FieldLogger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Warnf("Received signal %v, cancelling remaining chapters...", sig)
			cancel()
		case <-ctx.Done():
			return
		}
		sig := <-sigChan
		log.Errorf("Received second signal %v, exiting now", sig)
		os.Exit(130)
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
