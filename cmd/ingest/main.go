// ingest appends CSV sensor readings to the sample store and pushes the
// updated store to its remote repository.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	prompt "github.com/c-bata/go-prompt"
	"golang.org/x/term"

	"github.com/aa08453/spectra/internal/config"
	"github.com/aa08453/spectra/internal/gitsync"
	"github.com/aa08453/spectra/internal/ingest"
	"github.com/aa08453/spectra/internal/logging"
	"github.com/aa08453/spectra/internal/sensor"
	"github.com/aa08453/spectra/internal/store"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfgPath := flag.String("config", "spectra.yaml", "config file path")
	typeName := flag.String("type", "", "sensor type: rgb, spectrophotometer, as7341")
	noSync := flag.Bool("no-sync", false, "skip pull before and push after ingestion")
	withMeta := flag.Bool("meta", false, "prompt for optional metadata per sample")
	jsonLog := flag.Bool("json", false, "JSON log output")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logging.Init(level, *jsonLog)
	log := logging.Component("ingest-cli")

	log.Info("spectra ingest starting", "version", Version)

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

	runID := time.Now().UTC().Format("20060102T150405")
	ctx := logging.ContextWithRunID(context.Background(), runID)
	interactive := term.IsTerminal(int(os.Stdin.Fd()))

	// Resolve inputs: positional args, or a prompt on a terminal.
	inputs := flag.Args()
	if len(inputs) == 0 {
		if !interactive {
			fatal(log, "resolve inputs", fmt.Errorf("no input files; pass CSV files or folders as arguments"))
		}
		line := prompt.Input("Folders or CSV files: ", fileCompleter)
		inputs = strings.Fields(line)
	}

	// Resolve sensor type.
	name := *typeName
	if name == "" {
		if !interactive {
			fatal(log, "resolve sensor type", fmt.Errorf("missing -type"))
		}
		name = prompt.Input("CSV source (1=RGB, 2=spectrophotometer, 3=AS7341): ", typeCompleter)
	}
	sensorType, err := sensor.ParseType(name)
	if err != nil {
		fatal(log, "resolve sensor type", err)
	}

	// =========================================================================
	// Refresh the repository checkout
	// =========================================================================

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

	if !*noSync {
		if err := sync.EnsureRepo(ctx); err != nil {
			fatal(log, "refresh repository", err)
		}
	} else if err := os.MkdirAll(cfg.Repo.Dir, 0755); err != nil {
		fatal(log, "create store directory", err)
	}

	// =========================================================================
	// Ingest
	// =========================================================================

	files := ingest.CollectCSVFiles(inputs)
	if len(files) == 0 {
		fatal(log, "collect inputs", fmt.Errorf("no valid CSV files found"))
	}

	st, err := store.Open(cfg.StorePath())
	if err != nil {
		fatal(log, "open store", err)
	}
	defer st.Close()

	opts := ingest.Options{
		PercentileAccuracy: cfg.Summary.PercentileAccuracy,
	}
	if *withMeta && interactive {
		opts.Metadata = promptMetadata
	}
	if !*noSync {
		opts.Syncer = &checkpointedSync{store: st, client: sync}
	}

	summary, runErr := ingest.New(st, opts).Run(ctx, files, sensorType)

	// =========================================================================
	// Report
	// =========================================================================

	fmt.Printf("\nAdded %d samples (%d duplicates skipped, %d of %d files failed)\n",
		summary.NewSamples, summary.Duplicates, summary.FilesFailed,
		summary.FilesProcessed+summary.FilesFailed)
	for _, e := range summary.Errors {
		fmt.Printf("  warning: %v\n", e)
	}

	if runErr != nil {
		// Sync failures are non-fatal: the local store already has the
		// new entries. Everything else ends the run with an error.
		log.Error("run finished with error", "error", runErr)
		os.Exit(1)
	}
}

// checkpointedSync flushes the store's WAL into the store file before
// handing it to the git client, so the staged file is complete.
type checkpointedSync struct {
	store  *store.Store
	client *gitsync.Client
}

func (s *checkpointedSync) Sync(ctx context.Context, summary *ingest.Summary) error {
	if err := s.store.Checkpoint(ctx); err != nil {
		return err
	}
	return s.client.Sync(ctx, summary)
}

// promptMetadata interactively collects optional key/value metadata for
// one sample, mirroring the store key in the prompt.
func promptMetadata(key string) map[string]string {
	answer := prompt.Input(fmt.Sprintf("Add metadata for %s? (y/n): ", key), noCompleter)
	if !strings.EqualFold(strings.TrimSpace(answer), "y") {
		return nil
	}

	attrs := make(map[string]string)
	for {
		name := strings.TrimSpace(prompt.Input("Metadata key (empty to stop): ", noCompleter))
		if name == "" {
			break
		}
		value := strings.TrimSpace(prompt.Input(fmt.Sprintf("Value for %s: ", name), noCompleter))
		attrs[name] = value
	}
	return attrs
}

func noCompleter(prompt.Document) []prompt.Suggest { return nil }

func typeCompleter(d prompt.Document) []prompt.Suggest {
	suggestions := []prompt.Suggest{
		{Text: "rgb", Description: "RGB color sensor"},
		{Text: "spectrophotometer", Description: "Scanning spectrophotometer"},
		{Text: "as7341", Description: "AS7341 10-channel color sensor"},
	}
	return prompt.FilterHasPrefix(suggestions, d.GetWordBeforeCursor(), true)
}

func fileCompleter(d prompt.Document) []prompt.Suggest {
	entries, err := os.ReadDir(".")
	if err != nil {
		return nil
	}
	var suggestions []prompt.Suggest
	for _, e := range entries {
		if e.IsDir() || strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			suggestions = append(suggestions, prompt.Suggest{Text: e.Name()})
		}
	}
	return prompt.FilterHasPrefix(suggestions, d.GetWordBeforeCursor(), true)
}

func fatal(log *slog.Logger, step string, err error) {
	log.Error(step, "error", err)
	os.Exit(1)
}
