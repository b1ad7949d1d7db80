// view lists stored samples, loads a selection and renders them as a
// comparison chart. The selection can also be exported to Parquet.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/aa08453/spectra/internal/config"
	"github.com/aa08453/spectra/internal/export"
	"github.com/aa08453/spectra/internal/gitsync"
	"github.com/aa08453/spectra/internal/logging"
	"github.com/aa08453/spectra/internal/plot"
	"github.com/aa08453/spectra/internal/store"
	"github.com/aa08453/spectra/internal/view"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfgPath := flag.String("config", "spectra.yaml", "config file path")
	keysFlag := flag.String("keys", "", "comma-separated sample keys (skips the interactive prompt)")
	outPath := flag.String("out", "", "chart output path (default from config)")
	exportPath := flag.String("export", "", "also export the selection to a Parquet file")
	pull := flag.Bool("pull", false, "pull the repository before reading the store")
	jsonLog := flag.Bool("json", false, "JSON log output")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logging.Init(level, *jsonLog)
	log := logging.Component("view-cli")

	log.Info("spectra view starting", "version", Version)

	// Load config
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Info("no config file found, using defaults")
			cfg = config.DefaultConfig()
		} else {
			fatal(log, "load config", err)
		}
	}

	ctx := context.Background()

	if *pull {
		sync := gitsync.New(gitsync.Options{
			URL:         cfg.Repo.URL,
			Dir:         cfg.Repo.Dir,
			StoreFile:   cfg.Store.File,
			Branch:      cfg.Repo.Branch,
			Remote:      cfg.Repo.Remote,
			AuthorName:  cfg.Repo.AuthorName,
			AuthorEmail: cfg.Repo.AuthorEmail,
			Timeout:     cfg.Repo.Timeout.Duration(),
		})
		if err := sync.EnsureRepo(ctx); err != nil {
			fatal(log, "refresh repository", err)
		}
	}

	// =========================================================================
	// Select
	// =========================================================================

	st, err := store.Open(cfg.StorePath())
	if err != nil {
		fatal(log, "open store", err)
	}
	defer st.Close()

	keys, err := st.Keys(ctx)
	if err != nil {
		fatal(log, "list samples", err)
	}
	if len(keys) == 0 {
		fmt.Println("The store is empty; ingest some samples first.")
		return
	}

	var selected []string
	if *keysFlag != "" {
		selected, err = view.Filter(keys, strings.Split(*keysFlag, ","))
	} else if term.IsTerminal(int(os.Stdin.Fd())) {
		selected, err = view.PromptSelect(keys)
	} else {
		err = fmt.Errorf("no terminal; pass -keys to select samples")
	}
	if err != nil {
		fatal(log, "select samples", err)
	}

	// =========================================================================
	// Load and render
	// =========================================================================

	readings, err := st.LoadMany(ctx, selected)
	if err != nil {
		fatal(log, "load samples", err)
	}

	for _, r := range readings {
		fmt.Printf("%s: %d channels, mean %.3f (source %s)\n",
			r.Key(), r.Summary.Count, r.Summary.Mean, r.SourceFile)
	}

	chart := *outPath
	if chart == "" {
		chart = cfg.Plot.Output
	}

	opts := plot.DefaultOptions()
	opts.WidthIn = cfg.Plot.WidthIn
	opts.HeightIn = cfg.Plot.HeightIn

	if err := plot.Render(readings, chart, opts); err != nil {
		fatal(log, "render chart", err)
	}
	fmt.Printf("Chart written to %s\n", chart)

	if *exportPath != "" {
		if err := export.Write(readings, *exportPath); err != nil {
			fatal(log, "export samples", err)
		}
		fmt.Printf("Exported %d samples to %s\n", len(readings), *exportPath)
	}
}

func fatal(log *slog.Logger, step string, err error) {
	log.Error(step, "error", err)
	os.Exit(1)
}
