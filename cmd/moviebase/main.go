package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"moviebase/internal/config"
	"moviebase/internal/omdb"
	"moviebase/internal/pipeline"
	"moviebase/internal/storage"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", cfg.APIRequestLimit, "max movies queried against the lookup service")
		delayMs := fs.Int("delay-ms", cfg.APICallDelayMs, "delay between external calls")
		_ = fs.Parse(os.Args[2:])
		cfg.APIRequestLimit = *limit
		cfg.APICallDelayMs = *delayMs
		must(cfg.Require("OMDB_API_KEY", cfg.OMDBAPIKey))

		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()

		svc := pipeline.NewETLService(db, cfg, omdb.NewClient(cfg), logger)
		result, err := svc.Run(context.Background())
		printRunResult(result)
		must(err)
	case "export:missing":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", "", "output xlsx path")
		runID := fs.Int64("run", 0, "run id (default: latest)")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}

		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()

		id := *runID
		if id == 0 {
			latest, ok, err := db.LatestRunID()
			must(err)
			if !ok {
				must(fmt.Errorf("no recorded runs"))
			}
			id = latest
		}
		rows, err := db.ListUnmatched(id)
		must(err)
		must(pipeline.ExportUnmatchedToXLSX(rows, *out))
		fmt.Printf("exported %d unmatched movies from run %d to %s\n", len(rows), id, *out)
	case "title:normalize":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		title := fs.String("title", "", "raw title")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*title) == "" {
			must(fmt.Errorf("--title is required"))
		}
		query := pipeline.NewNormalizer(cfg.TitleArticles).Normalize(*title)
		if query.Year != nil {
			fmt.Printf("title=%q year=%d\n", query.Title, *query.Year)
		} else {
			fmt.Printf("title=%q year=none\n", query.Title)
		}
	default:
		usage()
		os.Exit(1)
	}
}

func printRunResult(result pipeline.RunResult) {
	s := result.Summary
	fmt.Printf("run %d: movies=%d attempted=%d matched=%d unmatched=%d (%.1f%% success)\n",
		result.RunID, s.Total, s.Attempted, s.Matched, s.Unmatched, s.SuccessRate())
	for strategy, n := range s.ByStrategy {
		fmt.Printf("  %s: %d\n", strategy, n)
	}
	fmt.Printf("loaded movies=%d (failed=%d) genres=%d associations=%d ratings=%d (failed=%d)\n",
		result.MoviesInserted, result.MoviesFailed, result.Genres, result.Associations,
		result.RatingsInserted, result.RatingsFailed)
	if result.ReportPath != "" {
		fmt.Printf("unmatched report: %s\n", result.ReportPath)
	}
}

func usage() {
	fmt.Println("usage: moviebase <command>")
	fmt.Println("commands:")
	fmt.Println("  run [--limit=400] [--delay-ms=200]")
	fmt.Println("  export:missing --out=./out/missing.xlsx [--run=ID]")
	fmt.Println("  title:normalize --title=\"Movie, The (1995)\"")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
