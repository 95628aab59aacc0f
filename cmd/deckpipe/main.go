// Command deckpipe extracts text layers and privacy-safe screenshots from a
// slide deck into a job directory, printing the result as JSON.
//
//	deckpipe [-config deckpipe.yaml] [-out dir] [-include 2,5] deck.pptx
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/pitchsafe/pitchdeck/deckpipe"
	"github.com/pitchsafe/pitchdeck/observability"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	outDir := flag.String("out", "", "output directory (default: <deck name>_extracted)")
	include := flag.String("include", "", "comma-separated slide ordinals to force-include")
	infoOnly := flag.Bool("info", false, "print the presentation summary and exit")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: deckpipe [flags] <deck.pptx>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	srcPath := flag.Arg(0)

	// Logging.
	var lvl slog.Level
	switch env("LOG_LEVEL", "info") {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg *deckpipe.Config
	if *configPath != "" {
		var err error
		cfg, err = deckpipe.LoadConfig(*configPath)
		if err != nil {
			slog.Error("config", "error", err)
			os.Exit(1)
		}
	} else {
		cfg = &deckpipe.Config{}
	}
	cfg.Logger = logger

	// Event sinks: always the log stream, plus SQLite when configured.
	sinks := observability.Multi{observability.LogSink{Logger: logger}}
	if eventsDB := env("EVENTS_DB", ""); eventsDB != "" {
		db, err := observability.Open(eventsDB)
		if err != nil {
			slog.Error("events db", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		sinks = append(sinks, observability.NewEventLogger(db))
	}
	cfg.Events = sinks

	pipe := deckpipe.New(*cfg)

	if *infoOnly {
		summary, err := pipe.GetInfo(srcPath)
		if err != nil {
			slog.Error("info", "error", err)
			os.Exit(1)
		}
		writeJSON(summary)
		return
	}

	opts, err := parseInclude(*include)
	if err != nil {
		slog.Error("invalid -include", "error", err)
		os.Exit(2)
	}

	dir := *outDir
	if dir == "" {
		stem := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
		dir = stem + "_extracted"
	}

	res, err := pipe.Extract(ctx, srcPath, dir, opts)
	if err != nil {
		slog.Error("extract", "error", err)
		os.Exit(1)
	}
	writeJSON(res)
}

func parseInclude(s string) (*deckpipe.Options, error) {
	if s == "" {
		return nil, nil
	}
	var opts deckpipe.Options
	for _, field := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("ordinal %q: %w", field, err)
		}
		opts.ForceInclude = append(opts.ForceInclude, n)
	}
	return &opts, nil
}

func writeJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.Error("encode", "error", err)
		os.Exit(1)
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
